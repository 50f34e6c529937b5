package httpserver

import (
	"net/http"
	"time"

	"inspire-orcid/internal/config"
)

func New(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Synchronous pushes can run for minutes while retrying.
		WriteTimeout: pushTimeout + 10*time.Second,
	}
}
