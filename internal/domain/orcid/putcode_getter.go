package orcid

import (
	"context"
	"fmt"
	"iter"

	"inspire-orcid/internal/orcidclient"
	"inspire-orcid/pkg/logger"
)

// PutcodeGetter lists the works this service registered under an identity.
type PutcodeGetter struct {
	client   Client
	clientID string
	log      logger.Logger
}

// NewPutcodeGetter keeps only works whose source is clientID; an empty
// clientID keeps every work of the identity.
func NewPutcodeGetter(client Client, clientID string, log logger.Logger) *PutcodeGetter {
	return &PutcodeGetter{client: client, clientID: clientID, log: log}
}

// AllRegisteredWorks yields every (putcode, url) pair. The listing is fetched
// first, then the works' urls in bulk chunks as the sequence is consumed. A
// rejected request yields an error wrapping ErrInputDataInvalid and ends the
// sequence.
func (g *PutcodeGetter) AllRegisteredWorks(ctx context.Context) iter.Seq2[WorkRef, error] {
	return func(yield func(WorkRef, error) bool) {
		summary, err := g.client.GetAllWorksSummary(ctx)
		if err != nil {
			yield(WorkRef{}, err)
			return
		}
		if summary.Status != orcidclient.StatusOK {
			yield(WorkRef{}, invalidResponse("get all works summary", summary.Response))
			return
		}

		putcodes := summary.PutcodesFromSource(g.clientID)
		g.log.Debug("orcid.putcodes: listed works", "total", len(summary.Works), "from_source", len(putcodes))

		for start := 0; start < len(putcodes); start += orcidclient.MaxBulkWorks {
			end := min(start+orcidclient.MaxBulkWorks, len(putcodes))

			bulk, err := g.client.GetBulkWorks(ctx, putcodes[start:end])
			if err != nil {
				yield(WorkRef{}, err)
				return
			}
			if bulk.Status != orcidclient.StatusOK {
				yield(WorkRef{}, invalidResponse("get bulk works", bulk.Response))
				return
			}

			for _, work := range bulk.Works {
				if work.URL == "" {
					g.log.Warn("orcid.putcodes: work without url", "putcode", work.Putcode)
					continue
				}
				if !yield(WorkRef{Putcode: work.Putcode, URL: work.URL}, nil) {
					return
				}
			}
		}
	}
}

func invalidResponse(op string, resp orcidclient.Response) error {
	if resp.Err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInputDataInvalid, op, resp.Err)
	}
	return fmt.Errorf("%w: %s: http %d", ErrInputDataInvalid, op, resp.HTTPStatus)
}
