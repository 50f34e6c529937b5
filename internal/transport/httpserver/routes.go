package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"inspire-orcid/internal/config"
	"inspire-orcid/internal/transport/httpserver/handler"
	"inspire-orcid/internal/transport/httpserver/middleware"
	"inspire-orcid/pkg/logger"
)

// pushTimeout covers retries with backoff on the synchronous push endpoint.
const pushTimeout = 5 * time.Minute

func NewRouter(cfg config.Config, handlers *handler.Handlers, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.NewCORS(cfg.CORSAllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.With(chimw.Timeout(5*time.Second)).Get("/health", handlers.Health)

		auth := middleware.NewAPITokenAuth(cfg.APIToken, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.With(chimw.Timeout(pushTimeout)).Post("/orcid/push", handlers.PushWork)

			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(30 * time.Second))

				r.Post("/orcid/push/async", handlers.EnqueuePush)
				r.Get("/orcid/push/tasks/{task_id}", handlers.GetPushTask)
				r.Get("/orcid/{orcid}/putcodes", handlers.ListPutcodes)
				r.Delete("/orcid/{orcid}/putcodes", handlers.DeletePutcodes)
			})
		})
	})

	return r
}
