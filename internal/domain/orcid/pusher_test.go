package orcid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"inspire-orcid/internal/orcidclient"
)

func TestPushCreatesNewWork(t *testing.T) {
	record := newRecord("R1", "Partial Symmetries of Weak Interactions")
	f := newPusherFixture(record)
	f.client.postFn = func(work orcidclient.Work) (orcidclient.PostNewWorkResult, error) {
		if work.Putcode != nil {
			t.Fatalf("expected new work without putcode, got %d", *work.Putcode)
		}
		return created(42), nil
	}

	putcode, err := f.push("R1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if putcode != 42 {
		t.Fatalf("expected putcode 42, got %d", putcode)
	}

	entry := f.store.entries[CacheKey(testOrcid, "R1")]
	if entry.Putcode == nil || *entry.Putcode != 42 {
		t.Fatalf("expected cached putcode 42, got %+v", entry)
	}
	want, _ := Fingerprint(record)
	if entry.Fingerprint == nil || *entry.Fingerprint != want {
		t.Fatalf("expected fingerprint of pushed record, got %+v", entry.Fingerprint)
	}
	if len(f.locker.keys) != 1 || f.locker.keys[0] != LockKey(testOrcid) {
		t.Fatalf("expected one lock on %s, got %v", LockKey(testOrcid), f.locker.keys)
	}
}

func TestPushUnchangedContentIsCacheHit(t *testing.T) {
	f := newPusherFixture(newRecord("R1", "Title"))
	f.client.postFn = func(orcidclient.Work) (orcidclient.PostNewWorkResult, error) {
		return created(42), nil
	}

	if _, err := f.push("R1"); err != nil {
		t.Fatalf("first push: %v", err)
	}
	putcode, err := f.push("R1")
	if err != nil {
		t.Fatalf("second push: %v", err)
	}
	if putcode != 42 {
		t.Fatalf("expected cached putcode 42, got %d", putcode)
	}
	if calls := f.client.mutatingCalls(); calls != 1 {
		t.Fatalf("expected exactly one remote write, got %d", calls)
	}
	if len(f.locker.keys) != 1 {
		t.Fatalf("expected no lock taken on cache hit, got %v", f.locker.keys)
	}
}

func TestPushCachedPutcodeSkipsRemote(t *testing.T) {
	record := newRecord("R1", "Title")
	f := newPusherFixture(record)
	if err := f.cache.WritePutcode(context.Background(), testOrcid, "R1", 77, record); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	putcode, err := f.push("R1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if putcode != 77 {
		t.Fatalf("expected putcode 77, got %d", putcode)
	}
	if calls := f.client.mutatingCalls(); calls != 0 {
		t.Fatalf("expected no remote call, got %d", calls)
	}
}

func TestPushChangedContentUpdates(t *testing.T) {
	record := newRecord("R1", "Old title")
	f := newPusherFixture(record)
	if err := f.cache.WritePutcode(context.Background(), testOrcid, "R1", 42, record); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	f.records.records["R1"] = newRecord("R1", "New title")

	putcode, err := f.push("R1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if putcode != 42 {
		t.Fatalf("expected putcode 42, got %d", putcode)
	}
	if f.client.posts != 0 || len(f.client.puts) != 1 || f.client.puts[0] != 42 {
		t.Fatalf("expected one update of 42, got posts=%d puts=%v", f.client.posts, f.client.puts)
	}
	if work := f.client.putWorks[0]; work.Putcode == nil || *work.Putcode != 42 {
		t.Fatalf("expected work tagged with putcode 42, got %+v", work.Putcode)
	}

	changed, err := f.cache.HasContentChanged(context.Background(), testOrcid, "R1", f.records.records["R1"])
	if err != nil || changed {
		t.Fatalf("expected fingerprint refreshed, changed=%v err=%v", changed, err)
	}
}

func TestPushRecordNotFound(t *testing.T) {
	f := newPusherFixture()

	_, err := f.push("missing")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestPushCreateInvalid(t *testing.T) {
	f := newPusherFixture(newRecord("R1", "Title"))
	f.client.postFn = func(orcidclient.Work) (orcidclient.PostNewWorkResult, error) {
		return orcidclient.PostNewWorkResult{Response: invalid(http.StatusBadRequest)}, nil
	}

	_, err := f.push("R1")
	if !errors.Is(err, ErrInputDataInvalid) {
		t.Fatalf("expected ErrInputDataInvalid, got %v", err)
	}
	if len(f.store.entries) != 0 {
		t.Fatalf("expected nothing cached, got %v", f.store.entries)
	}
}

func TestPushUpdateInvalid(t *testing.T) {
	record := newRecord("R1", "Title")
	f := newPusherFixture(record)
	if err := f.cache.WritePutcode(context.Background(), testOrcid, "R1", 42, nil); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	f.client.putFn = func(orcidclient.Work, int64) (orcidclient.PutUpdatedWorkResult, error) {
		return orcidclient.PutUpdatedWorkResult{Response: invalid(http.StatusUnauthorized)}, nil
	}

	_, err := f.push("R1")
	if !errors.Is(err, ErrInputDataInvalid) {
		t.Fatalf("expected ErrInputDataInvalid, got %v", err)
	}
	var responseErr *orcidclient.ResponseError
	if !errors.As(err, &responseErr) {
		t.Fatalf("expected wrapped response error, got %v", err)
	}
}

func TestPushTransientErrorPassesThrough(t *testing.T) {
	f := newPusherFixture(newRecord("R1", "Title"))
	f.client.postFn = func(orcidclient.Work) (orcidclient.PostNewWorkResult, error) {
		return orcidclient.PostNewWorkResult{}, &orcidclient.TransientError{Op: "post_new_work", HTTPStatus: http.StatusServiceUnavailable}
	}

	_, err := f.push("R1")
	var transient *orcidclient.TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if errors.Is(err, ErrInputDataInvalid) {
		t.Fatalf("transient error must not be classified as invalid")
	}
}

func TestPushConflictReconciles(t *testing.T) {
	record := newRecord("R1", "Title")
	f := newPusherFixture(newRecord("R0", "Other"), record)
	f.client.postFn = func(orcidclient.Work) (orcidclient.PostNewWorkResult, error) {
		return conflict(), nil
	}
	f.client.register(7, "http://inspirehep.net/record/R0")
	f.client.register(8, "http://inspirehep.net/record/R1/")

	putcode, err := f.push("R1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if putcode != 8 {
		t.Fatalf("expected putcode 8, got %d", putcode)
	}
	if len(f.client.puts) != 1 || f.client.puts[0] != 8 {
		t.Fatalf("expected update of putcode 8, got %v", f.client.puts)
	}
	if work := f.client.putWorks[0]; work.Putcode == nil || *work.Putcode != 8 {
		t.Fatalf("expected update tagged with putcode 8, got %+v", work.Putcode)
	}

	r0 := f.store.entries[CacheKey(testOrcid, "R0")]
	if r0.Putcode == nil || *r0.Putcode != 7 || r0.Fingerprint != nil {
		t.Fatalf("expected R0 backfilled with putcode 7 and no fingerprint, got %+v", r0)
	}
	r1 := f.store.entries[CacheKey(testOrcid, "R1")]
	want, _ := Fingerprint(record)
	if r1.Putcode == nil || *r1.Putcode != 8 || r1.Fingerprint == nil || *r1.Fingerprint != want {
		t.Fatalf("expected R1 cached with putcode 8 and fingerprint, got %+v", r1)
	}
	if len(f.locker.keys) != 2 {
		t.Fatalf("expected create and update each under the lock, got %v", f.locker.keys)
	}
}

func TestPushConflictBackfillsEveryWork(t *testing.T) {
	f := newPusherFixture(newRecord("1005", "Title"))
	f.client.postFn = func(orcidclient.Work) (orcidclient.PostNewWorkResult, error) {
		return conflict(), nil
	}
	const n = 250
	for i := 0; i < n; i++ {
		f.client.register(int64(i+1), fmt.Sprintf("http://inspirehep.net/record/%d", 1000+i))
	}

	putcode, err := f.push("1005")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if putcode != 6 {
		t.Fatalf("expected putcode 6, got %d", putcode)
	}
	if len(f.store.entries) != n {
		t.Fatalf("expected %d cache entries, got %d", n, len(f.store.entries))
	}
	if len(f.client.bulkCalls) != 3 || len(f.client.bulkCalls[2]) != 50 {
		t.Fatalf("expected bulk reads of 100, 100, 50, got %d calls", len(f.client.bulkCalls))
	}

	changed, err := f.cache.HasContentChanged(context.Background(), testOrcid, "1000", newRecord("1000", "x"))
	if err != nil || !changed {
		t.Fatalf("expected backfilled entry to compare as changed, changed=%v err=%v", changed, err)
	}
}

func TestPushConflictNoMatchingWork(t *testing.T) {
	f := newPusherFixture(newRecord("R1", "Title"))
	f.client.postFn = func(orcidclient.Work) (orcidclient.PostNewWorkResult, error) {
		return conflict(), nil
	}
	f.client.register(7, "http://inspirehep.net/record/R0")

	_, err := f.push("R1")
	if !errors.Is(err, ErrPutcodeNotFoundInRegistry) {
		t.Fatalf("expected ErrPutcodeNotFoundInRegistry, got %v", err)
	}
	if len(f.client.puts) != 0 {
		t.Fatalf("expected no update, got %v", f.client.puts)
	}
	if _, ok := f.store.entries[CacheKey(testOrcid, "R0")]; !ok {
		t.Fatalf("expected other works backfilled even when the target is missing")
	}
}

func TestPushConflictSkipsUnparsableURLs(t *testing.T) {
	f := newPusherFixture(newRecord("R1", "Title"))
	f.client.postFn = func(orcidclient.Work) (orcidclient.PostNewWorkResult, error) {
		return conflict(), nil
	}
	f.client.register(5, "no-slash-here")
	f.client.register(8, "http://inspirehep.net/record/R1")

	putcode, err := f.push("R1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if putcode != 8 {
		t.Fatalf("expected putcode 8, got %d", putcode)
	}
	if len(f.store.entries) != 1 {
		t.Fatalf("expected only the parsable work cached, got %v", f.store.entries)
	}
}

func TestPushConflictLastDuplicateWins(t *testing.T) {
	f := newPusherFixture(newRecord("R1", "Title"))
	f.client.postFn = func(orcidclient.Work) (orcidclient.PostNewWorkResult, error) {
		return conflict(), nil
	}
	f.client.register(8, "http://inspirehep.net/record/R1")
	f.client.register(9, "http://inspirehep.net/record/R1")

	putcode, err := f.push("R1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if putcode != 9 {
		t.Fatalf("expected last putcode 9, got %d", putcode)
	}
	if *f.store.entries[CacheKey(testOrcid, "R1")].Putcode != 9 {
		t.Fatalf("expected cache to hold 9")
	}
}

func TestPushConflictCacheLostWrite(t *testing.T) {
	f := newPusherFixture(newRecord("R1", "Title"))
	f.store.dropWrites = true
	f.client.postFn = func(orcidclient.Work) (orcidclient.PostNewWorkResult, error) {
		return conflict(), nil
	}
	f.client.register(8, "http://inspirehep.net/record/R1")

	_, err := f.push("R1")
	if !errors.Is(err, ErrPutcodeNotFoundAfterReconciliation) {
		t.Fatalf("expected ErrPutcodeNotFoundAfterReconciliation, got %v", err)
	}
}

func TestPushConflictListingRejected(t *testing.T) {
	f := newPusherFixture(newRecord("R1", "Title"))
	f.client.postFn = func(orcidclient.Work) (orcidclient.PostNewWorkResult, error) {
		return conflict(), nil
	}
	f.client.summaryFn = func() (orcidclient.WorksSummaryResult, error) {
		return orcidclient.WorksSummaryResult{Response: invalid(http.StatusUnauthorized)}, nil
	}

	_, err := f.push("R1")
	if !errors.Is(err, ErrInputDataInvalid) {
		t.Fatalf("expected ErrInputDataInvalid, got %v", err)
	}
}

func TestPushSerializesWritesPerIdentity(t *testing.T) {
	var records []*Record
	for i := 0; i < 8; i++ {
		records = append(records, newRecord(fmt.Sprintf("R%d", i), "Title"))
	}
	f := newPusherFixture(records...)
	f.client.delay = 5 * time.Millisecond

	var wg sync.WaitGroup
	errs := make(chan error, len(records))
	for _, record := range records {
		wg.Add(1)
		go func(recid string) {
			defer wg.Done()
			if _, err := f.push(recid); err != nil {
				errs <- err
			}
		}(record.Recid)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.client.maxInflight != 1 {
		t.Fatalf("expected remote writes to never overlap, max in flight %d", f.client.maxInflight)
	}
	if f.client.posts != len(records) {
		t.Fatalf("expected %d creates, got %d", len(records), f.client.posts)
	}
}
