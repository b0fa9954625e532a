// Package api exposes the tracker over HTTP with an OpenAPI 3.1 description served at /docs.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/ticktask/internal/tracker"
)

const (
	apiTitle        = "TickTask API"
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// NewRouter builds the chi router with middleware, /healthz and the huma routes.
func NewRouter(t *tracker.Tracker, logger *slog.Logger, version string) http.Handler {
	router := chi.NewMux()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(RequestLogger(logger))
	router.Use(Recovery(logger))
	router.Use(CORS())
	router.Use(chimw.Timeout(requestTimeout))

	// Plain chi route, outside the OpenAPI document
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	config := huma.DefaultConfig(apiTitle, version)
	config.Info.Description = "Recurring task definitions, daily agenda, completion ledger and statistics."
	api := humachi.New(router, config)
	NewHandler(t, logger).Register(api)

	return router
}

// Server runs the HTTP API until its context is cancelled.
type Server struct {
	addr    string
	handler http.Handler
	logger  *slog.Logger
}

func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{addr: addr, handler: handler, logger: logger}
}

// Run listens on the configured address and shuts down gracefully when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.addr),
			slog.String("docs", "http://"+s.addr+"/docs"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
