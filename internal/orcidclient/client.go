package orcidclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"
)

const (
	contentType = "application/vnd.orcid+json"

	// MaxBulkWorks is the largest number of putcodes the registry accepts in
	// one bulk works read.
	MaxBulkWorks = 100

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Factory builds per-identity clients sharing one HTTP client.
type Factory struct {
	baseURL string
	http    *http.Client
}

func NewFactory(opts Options) *Factory {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Factory{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
	}
}

func (f *Factory) For(orcid, token string) *Client {
	return &Client{
		baseURL: f.baseURL,
		http:    f.http,
		orcid:   orcid,
		token:   token,
	}
}

// Client talks to the ORCID member API on behalf of one identity.
type Client struct {
	baseURL string
	http    *http.Client
	orcid   string
	token   string
}

func (c *Client) Orcid() string {
	return c.orcid
}

func (c *Client) PostNewWork(ctx context.Context, work Work) (PostNewWorkResult, error) {
	work.Putcode = nil
	raw, err := c.do(ctx, "post_new_work", http.MethodPost, "/work", work)
	if err != nil {
		return PostNewWorkResult{}, err
	}

	resp, err := classify("post_new_work", raw.status, raw.body, StatusCreated)
	if err != nil {
		return PostNewWorkResult{Response: resp}, err
	}
	result := PostNewWorkResult{Response: resp}
	if resp.Status != StatusCreated {
		return result, nil
	}

	// The work exists remotely without a known putcode; a retry hits the
	// already-exists conflict and reconciliation recovers it.
	putcode, err := putcodeFromLocation(raw.header.Get("Location"))
	if err != nil {
		return result, &TransientError{Op: "post_new_work", HTTPStatus: raw.status, Err: err}
	}
	result.Putcode = putcode
	return result, nil
}

func (c *Client) PutUpdatedWork(ctx context.Context, work Work, putcode int64) (PutUpdatedWorkResult, error) {
	work.Putcode = &putcode
	raw, err := c.do(ctx, "put_updated_work", http.MethodPut, "/work/"+strconv.FormatInt(putcode, 10), work)
	if err != nil {
		return PutUpdatedWorkResult{}, err
	}

	resp, err := classify("put_updated_work", raw.status, raw.body, StatusOK)
	return PutUpdatedWorkResult{Response: resp}, err
}

func (c *Client) GetAllWorksSummary(ctx context.Context) (WorksSummaryResult, error) {
	raw, err := c.do(ctx, "get_all_works_summary", http.MethodGet, "/works", nil)
	if err != nil {
		return WorksSummaryResult{}, err
	}

	resp, err := classify("get_all_works_summary", raw.status, raw.body, StatusOK)
	result := WorksSummaryResult{Response: resp}
	if err != nil || resp.Status != StatusOK {
		return result, err
	}

	var doc worksSummaryDocument
	if err := json.Unmarshal(raw.body, &doc); err != nil {
		return result, fmt.Errorf("decode works summary: %w", err)
	}
	for _, group := range doc.Group {
		for _, summary := range group.WorkSummary {
			work := WorkSummary{Putcode: summary.Putcode, Path: summary.Path}
			if summary.Source.SourceClientID != nil {
				work.SourceClientID = summary.Source.SourceClientID.Path
			}
			result.Works = append(result.Works, work)
		}
	}
	return result, nil
}

// GetBulkWorks reads the full works for up to MaxBulkWorks putcodes. Entries
// the registry reports as errors are left out.
func (c *Client) GetBulkWorks(ctx context.Context, putcodes []int64) (BulkWorksResult, error) {
	if len(putcodes) == 0 {
		return BulkWorksResult{Response: Response{Status: StatusOK, HTTPStatus: http.StatusOK}}, nil
	}
	if len(putcodes) > MaxBulkWorks {
		return BulkWorksResult{}, fmt.Errorf("get_bulk_works: %d putcodes exceeds limit of %d", len(putcodes), MaxBulkWorks)
	}

	ids := make([]string, 0, len(putcodes))
	for _, putcode := range putcodes {
		ids = append(ids, strconv.FormatInt(putcode, 10))
	}

	raw, err := c.do(ctx, "get_bulk_works", http.MethodGet, "/works/"+strings.Join(ids, ","), nil)
	if err != nil {
		return BulkWorksResult{}, err
	}

	resp, err := classify("get_bulk_works", raw.status, raw.body, StatusOK)
	result := BulkWorksResult{Response: resp}
	if err != nil || resp.Status != StatusOK {
		return result, err
	}

	var doc bulkDocument
	if err := json.Unmarshal(raw.body, &doc); err != nil {
		return result, fmt.Errorf("decode bulk works: %w", err)
	}
	for _, item := range doc.Bulk {
		if item.Work == nil {
			continue
		}
		detail := WorkDetail{Putcode: item.Work.Putcode}
		if item.Work.URL != nil {
			detail.URL = item.Work.URL.Value
		}
		result.Works = append(result.Works, detail)
	}
	return result, nil
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, op, method, suffix string, payload interface{}) (rawResponse, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return rawResponse{}, fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.baseURL + "/" + c.orcid + suffix
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return rawResponse{}, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return rawResponse{}, err
		}
		return rawResponse{}, &TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return rawResponse{}, &TransientError{Op: op, HTTPStatus: resp.StatusCode, Err: err}
	}

	return rawResponse{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

func putcodeFromLocation(location string) (int64, error) {
	location = strings.TrimRight(strings.TrimSpace(location), "/")
	if location == "" {
		return 0, errors.New("missing Location header")
	}
	putcode, err := strconv.ParseInt(path.Base(location), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse putcode from location %q: %w", location, err)
	}
	return putcode, nil
}
