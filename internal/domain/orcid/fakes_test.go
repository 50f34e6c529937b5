package orcid

import (
	"context"
	"net/http"
	"sync"
	"time"

	"inspire-orcid/internal/orcidclient"
	"inspire-orcid/pkg/logger"
)

type fakeRecords struct {
	records map[string]*Record
}

func newFakeRecords(records ...*Record) *fakeRecords {
	r := &fakeRecords{records: make(map[string]*Record)}
	for _, record := range records {
		r.records[record.Recid] = record
	}
	return r
}

func (r *fakeRecords) GetRecord(ctx context.Context, recid string) (*Record, error) {
	record, ok := r.records[recid]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

type memStore struct {
	mu      sync.Mutex
	entries map[string]PutcodeCacheEntry
	// dropWrites simulates a store that acknowledges writes it loses.
	dropWrites bool
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]PutcodeCacheEntry)}
}

func (s *memStore) Get(ctx context.Context, key string) (*PutcodeCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *memStore) Put(ctx context.Context, entry *PutcodeCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropWrites {
		return nil
	}
	s.entries[entry.CacheKey] = *entry
	return nil
}

type fakeLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	keys  []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *fakeLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.keys = append(l.keys, key)
	l.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

type fakeClient struct {
	mu sync.Mutex

	postFn func(work orcidclient.Work) (orcidclient.PostNewWorkResult, error)
	putFn  func(work orcidclient.Work, putcode int64) (orcidclient.PutUpdatedWorkResult, error)

	summary   []orcidclient.WorkSummary
	urls      map[int64]string
	summaryFn func() (orcidclient.WorksSummaryResult, error)

	delay time.Duration

	posts       int
	puts        []int64
	putWorks    []orcidclient.Work
	bulkCalls   [][]int64
	inflight    int
	maxInflight int
}

func newFakeClient() *fakeClient {
	return &fakeClient{urls: make(map[int64]string)}
}

func (c *fakeClient) enter() {
	c.mu.Lock()
	c.inflight++
	if c.inflight > c.maxInflight {
		c.maxInflight = c.inflight
	}
	c.mu.Unlock()
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
}

func (c *fakeClient) leave() {
	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()
}

func (c *fakeClient) PostNewWork(ctx context.Context, work orcidclient.Work) (orcidclient.PostNewWorkResult, error) {
	c.enter()
	defer c.leave()

	c.mu.Lock()
	c.posts++
	n := c.posts
	c.mu.Unlock()

	if c.postFn != nil {
		return c.postFn(work)
	}
	return created(int64(1000 + n)), nil
}

func (c *fakeClient) PutUpdatedWork(ctx context.Context, work orcidclient.Work, putcode int64) (orcidclient.PutUpdatedWorkResult, error) {
	c.enter()
	defer c.leave()

	c.mu.Lock()
	c.puts = append(c.puts, putcode)
	c.putWorks = append(c.putWorks, work)
	c.mu.Unlock()

	if c.putFn != nil {
		return c.putFn(work, putcode)
	}
	return orcidclient.PutUpdatedWorkResult{Response: orcidclient.Response{Status: orcidclient.StatusOK, HTTPStatus: http.StatusOK}}, nil
}

func (c *fakeClient) GetAllWorksSummary(ctx context.Context) (orcidclient.WorksSummaryResult, error) {
	if c.summaryFn != nil {
		return c.summaryFn()
	}
	return orcidclient.WorksSummaryResult{
		Response: orcidclient.Response{Status: orcidclient.StatusOK, HTTPStatus: http.StatusOK},
		Works:    c.summary,
	}, nil
}

func (c *fakeClient) GetBulkWorks(ctx context.Context, putcodes []int64) (orcidclient.BulkWorksResult, error) {
	c.mu.Lock()
	c.bulkCalls = append(c.bulkCalls, append([]int64(nil), putcodes...))
	c.mu.Unlock()

	result := orcidclient.BulkWorksResult{Response: orcidclient.Response{Status: orcidclient.StatusOK, HTTPStatus: http.StatusOK}}
	for _, putcode := range putcodes {
		result.Works = append(result.Works, orcidclient.WorkDetail{Putcode: putcode, URL: c.urls[putcode]})
	}
	return result, nil
}

// register lists a work of ours under the identity.
func (c *fakeClient) register(putcode int64, url string) {
	c.summary = append(c.summary, orcidclient.WorkSummary{Putcode: putcode, SourceClientID: testClientID})
	c.urls[putcode] = url
}

func (c *fakeClient) mutatingCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posts + len(c.puts)
}

func created(putcode int64) orcidclient.PostNewWorkResult {
	return orcidclient.PostNewWorkResult{
		Response: orcidclient.Response{Status: orcidclient.StatusCreated, HTTPStatus: http.StatusCreated},
		Putcode:  putcode,
	}
}

func conflict() orcidclient.PostNewWorkResult {
	return orcidclient.PostNewWorkResult{Response: orcidclient.Response{
		Status:     orcidclient.StatusConflict,
		HTTPStatus: http.StatusConflict,
		Err:        &orcidclient.ResponseError{Name: "work_already_exists", HTTPStatus: http.StatusConflict},
	}}
}

func invalid(httpStatus int) orcidclient.Response {
	return orcidclient.Response{
		Status:     orcidclient.StatusInvalid,
		HTTPStatus: httpStatus,
		Err:        &orcidclient.ResponseError{Name: "http_error", HTTPStatus: httpStatus},
	}
}

const (
	testOrcid    = "0000-0002-1825-0097"
	testToken    = "mytoken"
	testClientID = "0000-0001-8607-8906"
)

type pusherFixture struct {
	pusher  *Pusher
	store   *memStore
	cache   *Cache
	locker  *fakeLocker
	client  *fakeClient
	records *fakeRecords
}

func newPusherFixture(records ...*Record) *pusherFixture {
	f := &pusherFixture{
		store:   newMemStore(),
		locker:  newFakeLocker(),
		client:  newFakeClient(),
		records: newFakeRecords(records...),
	}
	f.cache = NewCache(f.store)
	f.pusher = NewPusher(PusherDeps{
		Records: f.records,
		Cache:   f.cache,
		Locker:  f.locker,
		Clients: ClientFactoryFunc(func(orcid, token string) Client {
			return f.client
		}),
		Converter: NewWorkConverter(func(recid string) string {
			return "http://inspirehep.net/record/" + recid
		}),
		ClientID: testClientID,
		Log:      logger.NewNop(),
	})
	return f
}

func (f *pusherFixture) push(recid string) (int64, error) {
	return f.pusher.Push(context.Background(), PushRequest{Orcid: testOrcid, Recid: recid, Token: testToken})
}

func newRecord(recid, title string) *Record {
	return &Record{
		Recid: recid,
		Data: map[string]interface{}{
			"control_number": recid,
			"titles":         []interface{}{map[string]interface{}{"title": title}},
			"document_type":  []interface{}{"article"},
		},
	}
}
