package orcid

import (
	"strconv"
	"strings"

	"inspire-orcid/internal/orcidclient"
)

var workTypes = map[string]string{
	"article":          "journal-article",
	"book":             "book",
	"book chapter":     "book-chapter",
	"conference paper": "conference-paper",
	"proceedings":      "edited-book",
	"report":           "report",
	"thesis":           "dissertation-thesis",
	"note":             "other",
}

// WorkConverter renders a literature record as an ORCID work.
type WorkConverter struct {
	recordURL func(recid string) string
}

func NewWorkConverter(recordURL func(recid string) string) *WorkConverter {
	return &WorkConverter{recordURL: recordURL}
}

func (c *WorkConverter) Convert(record *Record, putcode *int64) orcidclient.Work {
	work := orcidclient.Work{
		Putcode: putcode,
		Type:    workType(record.Data),
	}

	if title := firstString(record.Data, "titles", "title"); title != "" {
		work.Title = &orcidclient.WorkTitle{Title: orcidclient.Value{Value: title}}
	}
	if journal := firstString(record.Data, "publication_info", "journal_title"); journal != "" {
		work.JournalTitle = &orcidclient.Value{Value: journal}
	}
	if year := publicationYear(record.Data); year != "" {
		work.PublicationDate = &orcidclient.PublicationDate{Year: &orcidclient.Value{Value: year}}
	}

	var ids []orcidclient.ExternalID
	for _, doi := range allStrings(record.Data, "dois", "value") {
		ids = append(ids, orcidclient.ExternalID{
			Type:         "doi",
			Value:        doi,
			URL:          &orcidclient.Value{Value: "http://dx.doi.org/" + doi},
			Relationship: "self",
		})
	}
	for _, eprint := range allStrings(record.Data, "arxiv_eprints", "value") {
		ids = append(ids, orcidclient.ExternalID{
			Type:         "arxiv",
			Value:        eprint,
			URL:          &orcidclient.Value{Value: "http://arxiv.org/abs/" + eprint},
			Relationship: "self",
		})
	}
	if len(ids) > 0 {
		work.ExternalIDs = &orcidclient.ExternalIDs{ExternalID: ids}
	}

	if c.recordURL != nil {
		work.URL = &orcidclient.Value{Value: c.recordURL(record.Recid)}
	}
	return work
}

func workType(data map[string]interface{}) string {
	types, _ := data["document_type"].([]interface{})
	for _, value := range types {
		name, _ := value.(string)
		if mapped, ok := workTypes[strings.ToLower(name)]; ok {
			return mapped
		}
	}
	return "other"
}

func publicationYear(data map[string]interface{}) string {
	for _, value := range objects(data, "publication_info") {
		switch year := value["year"].(type) {
		case float64:
			return formatYear(int(year))
		case string:
			if year != "" {
				return year
			}
		}
	}
	for _, value := range objects(data, "imprints") {
		if date, _ := value["date"].(string); len(date) >= 4 {
			return date[:4]
		}
	}
	return ""
}

func formatYear(year int) string {
	if year <= 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func objects(data map[string]interface{}, key string) []map[string]interface{} {
	values, _ := data[key].([]interface{})
	result := make([]map[string]interface{}, 0, len(values))
	for _, value := range values {
		if object, ok := value.(map[string]interface{}); ok {
			result = append(result, object)
		}
	}
	return result
}

func firstString(data map[string]interface{}, key, field string) string {
	values := allStrings(data, key, field)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func allStrings(data map[string]interface{}, key, field string) []string {
	var result []string
	for _, object := range objects(data, key) {
		if value, _ := object[field].(string); strings.TrimSpace(value) != "" {
			result = append(result, strings.TrimSpace(value))
		}
	}
	return result
}
