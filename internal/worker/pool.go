package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	orciddomain "inspire-orcid/internal/domain/orcid"
	pushdomain "inspire-orcid/internal/domain/push"
	"inspire-orcid/pkg/logger"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 100
	// keepFinished bounds how many finished tasks stay queryable.
	keepFinished = 1000
)

var (
	ErrQueueFull   = errors.New("push queue is full")
	ErrPoolStopped = errors.New("push pool is not running")
	ErrTaskUnknown = errors.New("push task not found")
)

type State string

const (
	StateQueued  State = "queued"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Runner runs one push; *push.Service satisfies it.
type Runner interface {
	Push(ctx context.Context, req orciddomain.PushRequest) (pushdomain.Result, error)
}

type Options struct {
	Workers   int
	QueueSize int
}

type Task struct {
	ID         string             `json:"id"`
	Orcid      string             `json:"orcid"`
	Recid      string             `json:"recid"`
	State      State              `json:"state"`
	Result     *pushdomain.Result `json:"result,omitempty"`
	Error      string             `json:"error,omitempty"`
	EnqueuedAt time.Time          `json:"enqueued_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}

type job struct {
	id  string
	req orciddomain.PushRequest
}

// Pool runs queued pushes on a fixed number of goroutines.
type Pool struct {
	runner Runner
	opts   Options
	log    logger.Logger

	mu       sync.Mutex
	jobs     chan job
	running  bool
	tasks    map[string]*Task
	finished []string

	group *errgroup.Group
}

func NewPool(runner Runner, opts Options, log logger.Logger) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	return &Pool{
		runner: runner,
		opts:   opts,
		log:    log,
		tasks:  make(map[string]*Task),
	}
}

// Start launches the workers. They run until Stop is called or ctx is done;
// ctx is also the parent of every push.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}

	p.jobs = make(chan job, p.opts.QueueSize)
	p.running = true
	p.group = new(errgroup.Group)

	jobs := p.jobs
	for i := 0; i < p.opts.Workers; i++ {
		p.group.Go(func() error {
			p.work(ctx, jobs)
			return nil
		})
	}
	p.log.Info("worker: pool started", "workers", p.opts.Workers, "queue_size", p.opts.QueueSize)
}

// Stop closes the queue and waits for the workers to drain it.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.jobs)
	group := p.group
	p.mu.Unlock()

	_ = group.Wait()
	p.log.Info("worker: pool stopped")
}

// Enqueue schedules req and returns the task id without waiting.
func (p *Pool) Enqueue(req orciddomain.PushRequest) (Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return Task{}, ErrPoolStopped
	}

	task := &Task{
		ID:         uuid.NewString(),
		Orcid:      req.Orcid,
		Recid:      req.Recid,
		State:      StateQueued,
		EnqueuedAt: time.Now().UTC(),
	}

	select {
	case p.jobs <- job{id: task.ID, req: req}:
	default:
		return Task{}, ErrQueueFull
	}

	p.tasks[task.ID] = task
	return *task, nil
}

func (p *Pool) Task(id string) (Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	task, ok := p.tasks[id]
	if !ok {
		return Task{}, ErrTaskUnknown
	}
	return *task, nil
}

func (p *Pool) work(ctx context.Context, jobs <-chan job) {
	for j := range jobs {
		p.setState(j.id, StateRunning)

		if ctx.Err() != nil {
			p.finish(j.id, pushdomain.Result{Orcid: j.req.Orcid, Recid: j.req.Recid}, context.Cause(ctx))
			continue
		}

		result, err := p.runner.Push(ctx, j.req)
		if err != nil {
			p.log.Warn("worker: push failed", "task_id", j.id, "orcid", j.req.Orcid, "recid", j.req.Recid, "err", err)
		}
		p.finish(j.id, result, err)
	}
}

func (p *Pool) setState(id string, state State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if task, ok := p.tasks[id]; ok {
		task.State = state
	}
}

func (p *Pool) finish(id string, result pushdomain.Result, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	task, ok := p.tasks[id]
	if !ok {
		return
	}
	now := time.Now().UTC()
	task.FinishedAt = &now
	task.Result = &result
	task.State = StateDone
	if err != nil {
		task.State = StateFailed
		task.Error = err.Error()
	}

	p.finished = append(p.finished, id)
	if len(p.finished) > keepFinished {
		delete(p.tasks, p.finished[0])
		p.finished = p.finished[1:]
	}
}
