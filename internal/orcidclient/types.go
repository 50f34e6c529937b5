package orcidclient

// Work is the subset of the ORCID v3.0 work document this service writes.
type Work struct {
	Putcode         *int64           `json:"put-code,omitempty"`
	Title           *WorkTitle       `json:"title,omitempty"`
	JournalTitle    *Value           `json:"journal-title,omitempty"`
	Type            string           `json:"type"`
	PublicationDate *PublicationDate `json:"publication-date,omitempty"`
	ExternalIDs     *ExternalIDs     `json:"external-ids,omitempty"`
	URL             *Value           `json:"url,omitempty"`
}

type Value struct {
	Value string `json:"value"`
}

type WorkTitle struct {
	Title Value `json:"title"`
}

type PublicationDate struct {
	Year  *Value `json:"year,omitempty"`
	Month *Value `json:"month,omitempty"`
	Day   *Value `json:"day,omitempty"`
}

type ExternalIDs struct {
	ExternalID []ExternalID `json:"external-id"`
}

type ExternalID struct {
	Type         string `json:"external-id-type"`
	Value        string `json:"external-id-value"`
	URL          *Value `json:"external-id-url,omitempty"`
	Relationship string `json:"external-id-relationship"`
}

type worksSummaryDocument struct {
	Group []struct {
		WorkSummary []workSummary `json:"work-summary"`
	} `json:"group"`
}

type workSummary struct {
	Putcode int64  `json:"put-code"`
	Path    string `json:"path"`
	Source  struct {
		SourceClientID *struct {
			Path string `json:"path"`
		} `json:"source-client-id"`
	} `json:"source"`
}

type bulkDocument struct {
	Bulk []struct {
		Work *struct {
			Putcode int64  `json:"put-code"`
			URL     *Value `json:"url"`
		} `json:"work"`
		Error *struct {
			ResponseCode     int    `json:"response-code"`
			DeveloperMessage string `json:"developer-message"`
		} `json:"error"`
	} `json:"bulk"`
}

// WorkSummary is one entry of an identity's works listing.
type WorkSummary struct {
	Putcode        int64
	Path           string
	SourceClientID string
}

// WorkDetail carries the fields of a full work the putcode sync needs.
type WorkDetail struct {
	Putcode int64
	URL     string
}
