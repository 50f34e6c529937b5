package app

import (
	"context"
	"fmt"
	"net/http"

	"gorm.io/gorm"
	"inspire-orcid/internal/config"
	"inspire-orcid/internal/db"
	orciddomain "inspire-orcid/internal/domain/orcid"
	pushdomain "inspire-orcid/internal/domain/push"
	"inspire-orcid/internal/orcidclient"
	"inspire-orcid/internal/repository/inmemory"
	"inspire-orcid/internal/repository/postgres/locks"
	"inspire-orcid/internal/repository/postgres/putcodes"
	"inspire-orcid/internal/repository/postgres/records"
	"inspire-orcid/internal/transport/httpserver"
	"inspire-orcid/internal/transport/httpserver/handler"
	"inspire-orcid/internal/worker"
	"inspire-orcid/pkg/logger"
)

type putcodeStore interface {
	orciddomain.CacheStore
	handler.PutcodeAdmin
}

type storage struct {
	putcodes putcodeStore
	records  orciddomain.RecordStore
	locker   orciddomain.Locker
}

type App struct {
	cfg        config.Config
	log        logger.Logger
	db         *gorm.DB
	records    orciddomain.RecordStore
	push       *pushdomain.Service
	pool       *worker.Pool
	httpServer *http.Server
}

// Options overrides collaborators, mostly for tests.
type Options struct {
	// HTTPClient is used for ORCID API calls when set.
	HTTPClient *http.Client
}

func New(cfg config.Config, log logger.Logger, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	gate, err := pushdomain.NewGate(cfg.Push.WhitelistRegex)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log}

	log.Info("app: initializing storage", "backend", cfg.Storage)
	store, err := a.openStorage()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.records = store.records

	log.Info("app: initializing orcid client", "base_url", cfg.Orcid.BaseURL, "sandbox", cfg.Orcid.Sandbox)
	clients := orcidclient.NewFactory(orcidclient.Options{
		BaseURL:    cfg.Orcid.BaseURL,
		Timeout:    cfg.Orcid.Timeout,
		HTTPClient: opts.HTTPClient,
	})

	pusher := orciddomain.NewPusher(orciddomain.PusherDeps{
		Records: store.records,
		Cache:   orciddomain.NewCache(store.putcodes),
		Locker:  store.locker,
		Clients: orciddomain.ClientFactoryFunc(func(orcid, token string) orciddomain.Client {
			return clients.For(orcid, token)
		}),
		Converter: orciddomain.NewWorkConverter(cfg.Orcid.RecordURL),
		ClientID:  cfg.Orcid.ClientID,
		Log:       log,
	})

	a.push = pushdomain.NewService(gate, pusher, pushdomain.Options{
		MaxRetries:   cfg.Push.MaxRetries,
		RetryBackoff: cfg.Push.RetryBackoff,
	}, log)
	a.pool = worker.NewPool(a.push, worker.Options{
		Workers:   cfg.Push.Workers,
		QueueSize: cfg.Push.QueueSize,
	}, log)

	log.Info("app: initializing http server")
	handlers := handler.New(a.push, a.pool, store.putcodes, log)
	a.httpServer = httpserver.New(cfg, httpserver.NewRouter(cfg, handlers, log))

	return a, nil
}

func (a *App) openStorage() (storage, error) {
	switch a.cfg.Storage {
	case config.StorageMemory:
		return storage{
			putcodes: inmemory.NewPutcodeStore(),
			records:  inmemory.NewRecordStore(),
			locker:   inmemory.NewLocker(a.cfg.Lock.Timeout),
		}, nil
	case config.StoragePostgres:
		dbConn, err := db.NewPostgres(a.cfg.DB, a.log)
		if err != nil {
			return storage{}, err
		}
		a.db = dbConn

		if a.cfg.DB.AutoMigrate {
			if _, err := db.Migrate(dbConn, a.log); err != nil {
				return storage{}, fmt.Errorf("migrate: %w", err)
			}
		}
		return storage{
			putcodes: putcodes.NewPostgres(dbConn),
			records:  records.NewPostgres(dbConn),
			locker:   locks.NewAdvisoryLocker(dbConn, a.cfg.Lock.Timeout, a.cfg.Lock.PollInterval, a.log),
		}, nil
	default:
		return storage{}, fmt.Errorf("unknown storage backend %q", a.cfg.Storage)
	}
}

// Start runs the push workers until ctx is done or Close is called.
func (a *App) Start(ctx context.Context) {
	a.pool.Start(ctx)
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Push() *pushdomain.Service {
	return a.push
}

func (a *App) Records() orciddomain.RecordStore {
	return a.records
}

// Close drains the worker queue, then releases the database.
func (a *App) Close() error {
	if a.pool != nil {
		a.pool.Stop()
	}
	return db.Close(a.db)
}
