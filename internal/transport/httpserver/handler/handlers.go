package handler

import (
	"context"

	orciddomain "inspire-orcid/internal/domain/orcid"
	pushdomain "inspire-orcid/internal/domain/push"
	"inspire-orcid/internal/worker"
	"inspire-orcid/pkg/logger"
)

// PushRunner runs a push synchronously.
type PushRunner interface {
	Push(ctx context.Context, req orciddomain.PushRequest) (pushdomain.Result, error)
}

// PushQueue schedules pushes for the worker pool.
type PushQueue interface {
	Enqueue(req orciddomain.PushRequest) (worker.Task, error)
	Task(id string) (worker.Task, error)
}

// PutcodeAdmin inspects and resets an identity's cached putcodes.
type PutcodeAdmin interface {
	ListByOrcid(ctx context.Context, orcid string) ([]orciddomain.PutcodeCacheEntry, error)
	DeleteByOrcid(ctx context.Context, orcid string) (int64, error)
}

type Handlers struct {
	Push     PushRunner
	Queue    PushQueue
	Putcodes PutcodeAdmin
	log      logger.Logger
}

func New(push PushRunner, queue PushQueue, putcodes PutcodeAdmin, log logger.Logger) *Handlers {
	return &Handlers{
		Push:     push,
		Queue:    queue,
		Putcodes: putcodes,
		log:      log,
	}
}
