package push

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	orciddomain "inspire-orcid/internal/domain/orcid"
	"inspire-orcid/internal/orcidclient"
	"inspire-orcid/pkg/logger"
)

const (
	defaultMaxRetries   = 5
	defaultRetryBackoff = 2 * time.Second
)

// Pusher is the part of orcid.Pusher the service drives.
type Pusher interface {
	Push(ctx context.Context, req orciddomain.PushRequest) (int64, error)
}

type Options struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

type Result struct {
	Orcid    string `json:"orcid"`
	Recid    string `json:"recid"`
	Putcode  int64  `json:"putcode,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Attempts int    `json:"attempts"`
}

// Service runs pushes behind the whitelist gate and retries transient
// failures with exponential backoff.
type Service struct {
	gate   *Gate
	pusher Pusher
	opts   Options
	log    logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewService(gate *Gate, pusher Pusher, opts Options, log logger.Logger) *Service {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	return &Service{
		gate:   gate,
		pusher: pusher,
		opts:   opts,
		log:    log,
		sleep:  sleepContext,
	}
}

func (s *Service) Push(ctx context.Context, req orciddomain.PushRequest) (Result, error) {
	req.Orcid = strings.TrimSpace(req.Orcid)
	req.Recid = strings.TrimSpace(req.Recid)
	result := Result{Orcid: req.Orcid, Recid: req.Recid}

	if req.Orcid == "" || req.Recid == "" || req.Token == "" {
		return result, fmt.Errorf("%w: orcid, recid and token are required", ErrInvalidRequest)
	}

	log := s.log.With("orcid", req.Orcid, "recid", req.Recid)
	if !s.gate.Allows(req.Orcid) {
		log.Info("push: skipped, orcid not whitelisted", "pattern", s.gate.Pattern())
		result.Skipped = true
		return result, nil
	}

	backoff := s.opts.RetryBackoff
	for {
		result.Attempts++
		log.Info("push: start", "attempt", result.Attempts)

		putcode, err := s.pusher.Push(ctx, req)
		if err == nil {
			result.Putcode = putcode
			log.Info("push: done", "putcode", putcode, "attempts", result.Attempts)
			return result, nil
		}

		var transient *orcidclient.TransientError
		if !errors.As(err, &transient) {
			log.BusinessError("push: failed", err, "attempts", result.Attempts)
			return result, err
		}
		if result.Attempts > s.opts.MaxRetries {
			log.InternalError("push: giving up after transient failures", err, "attempts", result.Attempts)
			return result, err
		}

		log.Warn("push: transient failure, retrying", "err", err, "attempt", result.Attempts, "backoff", backoff.String())
		if err := s.sleep(ctx, backoff); err != nil {
			return result, fmt.Errorf("push retry: %w", err)
		}
		backoff *= 2
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}
