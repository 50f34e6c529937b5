package orcid

import (
	"context"
	"errors"
	"fmt"

	"inspire-orcid/internal/orcidclient"
	"inspire-orcid/pkg/logger"
)

type PusherDeps struct {
	Records   RecordGetter
	Cache     *Cache
	Locker    Locker
	Clients   ClientFactory
	Converter *WorkConverter
	// ClientID is our ORCID client id; only works it created are considered
	// during putcode reconciliation.
	ClientID string
	Log      logger.Logger
}

// Pusher pushes one record to one identity's ORCID works, at most once per
// distinct content.
type Pusher struct {
	deps PusherDeps
}

func NewPusher(deps PusherDeps) *Pusher {
	return &Pusher{deps: deps}
}

// Push returns the putcode of the work representing req.Recid under
// req.Orcid. Failures are ErrRecordNotFound, ErrInputDataInvalid,
// ErrPutcodeNotFoundInRegistry, ErrPutcodeNotFoundAfterReconciliation,
// ErrLockTimeout or a *orcidclient.TransientError.
func (p *Pusher) Push(ctx context.Context, req PushRequest) (int64, error) {
	record, err := p.deps.Records.GetRecord(ctx, req.Recid)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return 0, fmt.Errorf("recid=%s: %w", req.Recid, err)
		}
		return 0, fmt.Errorf("load record %s: %w", req.Recid, err)
	}

	run := &pushRun{
		Pusher: p,
		req:    req,
		record: record,
		client: p.deps.Clients.For(req.Orcid, req.Token),
		log:    p.deps.Log.With("orcid", req.Orcid, "recid", req.Recid),
	}
	return run.push(ctx)
}

// pushRun holds the state of a single push.
type pushRun struct {
	*Pusher
	req    PushRequest
	record *Record
	client Client
	work   orcidclient.Work
	log    logger.Logger
}

func (r *pushRun) push(ctx context.Context) (int64, error) {
	putcode, cached, err := r.deps.Cache.ReadPutcode(ctx, r.req.Orcid, r.req.Recid)
	if err != nil {
		return 0, err
	}
	changed, err := r.deps.Cache.HasContentChanged(ctx, r.req.Orcid, r.req.Recid, r.record)
	if err != nil {
		return 0, err
	}
	if cached && !changed {
		r.log.Info("orcid.push: cache hit", "putcode", putcode)
		return putcode, nil
	}

	var tag *int64
	if cached {
		tag = &putcode
	}
	r.work = r.deps.Converter.Convert(r.record, tag)

	if cached {
		err = r.putUpdatedWork(ctx, putcode)
	} else {
		putcode, err = r.postNewWork(ctx)
	}
	if err != nil {
		return 0, err
	}

	if err := r.deps.Cache.WritePutcode(ctx, r.req.Orcid, r.req.Recid, putcode, r.record); err != nil {
		return 0, err
	}
	r.log.Info("orcid.push: pushed", "putcode", putcode, "updated", cached)
	return putcode, nil
}

func (r *pushRun) postNewWork(ctx context.Context) (int64, error) {
	var result orcidclient.PostNewWorkResult
	err := r.deps.Locker.WithLock(ctx, LockKey(r.req.Orcid), func(ctx context.Context) error {
		var err error
		result, err = r.client.PostNewWork(ctx, r.work)
		return err
	})
	if err != nil {
		return 0, err
	}
	r.logResponse("post_new_work", result.Response)

	switch result.Status {
	case orcidclient.StatusCreated:
		return result.Putcode, nil
	case orcidclient.StatusConflict:
		return r.reconcile(ctx)
	default:
		return 0, invalidResponse("post new work", result.Response)
	}
}

func (r *pushRun) putUpdatedWork(ctx context.Context, putcode int64) error {
	var result orcidclient.PutUpdatedWorkResult
	err := r.deps.Locker.WithLock(ctx, LockKey(r.req.Orcid), func(ctx context.Context) error {
		var err error
		result, err = r.client.PutUpdatedWork(ctx, r.work, putcode)
		return err
	})
	if err != nil {
		return err
	}
	r.logResponse("put_updated_work", result.Response)

	if result.Status != orcidclient.StatusOK {
		return invalidResponse("put updated work", result.Response)
	}
	return nil
}

// reconcile runs after the registry refused a create because the work already
// exists: it caches the putcodes of all the identity's works, then updates
// the work with the putcode found for this record.
func (r *pushRun) reconcile(ctx context.Context) (int64, error) {
	r.log.Info("orcid.push: work already exists, caching all author putcodes")

	getter := NewPutcodeGetter(r.client, r.deps.ClientID, r.log)
	var refs []WorkRef
	for ref, err := range getter.AllRegisteredWorks(ctx) {
		if err != nil {
			return 0, err
		}
		refs = append(refs, ref)
	}

	var putcode int64
	found := false
	for _, ref := range refs {
		recid, ok := RecidFromURL(ref.URL)
		if !ok {
			r.log.Warn("orcid.push: cannot parse recid from url", "url", ref.URL, "putcode", ref.Putcode)
			continue
		}
		if recid == r.req.Recid {
			putcode = ref.Putcode
			found = true
		}
		if err := r.deps.Cache.WritePutcode(ctx, r.req.Orcid, recid, ref.Putcode, nil); err != nil {
			return 0, err
		}
	}

	if !found {
		return 0, fmt.Errorf("orcid=%s recid=%s: %w (create failed because the work already exists)",
			r.req.Orcid, r.req.Recid, ErrPutcodeNotFoundInRegistry)
	}

	if _, cached, err := r.deps.Cache.ReadPutcode(ctx, r.req.Orcid, r.req.Recid); err != nil {
		return 0, err
	} else if !cached {
		r.log.Critical("orcid.push: putcode missing from cache after reconciliation", "putcode", putcode)
		return 0, fmt.Errorf("orcid=%s recid=%s putcode=%d: %w",
			r.req.Orcid, r.req.Recid, putcode, ErrPutcodeNotFoundAfterReconciliation)
	}

	r.work.Putcode = &putcode
	if err := r.putUpdatedWork(ctx, putcode); err != nil {
		return 0, err
	}
	return putcode, nil
}

func (r *pushRun) logResponse(op string, resp orcidclient.Response) {
	if resp.OK() {
		r.log.Debug("orcid.push: response", "op", op, "status", resp.Status, "http_status", resp.HTTPStatus)
		return
	}
	r.log.BusinessError("orcid.push: response", resp.Err, "op", op, "status", resp.Status, "http_status", resp.HTTPStatus)
}
