package orcid

import (
	"context"

	"inspire-orcid/internal/orcidclient"
)

// Client is the registry API bound to one identity and credential.
type Client interface {
	PostNewWork(ctx context.Context, work orcidclient.Work) (orcidclient.PostNewWorkResult, error)
	PutUpdatedWork(ctx context.Context, work orcidclient.Work, putcode int64) (orcidclient.PutUpdatedWorkResult, error)
	GetAllWorksSummary(ctx context.Context) (orcidclient.WorksSummaryResult, error)
	GetBulkWorks(ctx context.Context, putcodes []int64) (orcidclient.BulkWorksResult, error)
}

type ClientFactory interface {
	For(orcid, token string) Client
}

// ClientFactoryFunc adapts a function to ClientFactory.
type ClientFactoryFunc func(orcid, token string) Client

func (f ClientFactoryFunc) For(orcid, token string) Client {
	return f(orcid, token)
}

type RecordGetter interface {
	GetRecord(ctx context.Context, recid string) (*Record, error)
}

// RecordStore is a RecordGetter that can also load records.
type RecordStore interface {
	RecordGetter
	SaveRecord(ctx context.Context, record *Record) error
}
