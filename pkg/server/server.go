// Package server exposes the planner over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"avalanche-planner/pkg/config"
)

const shutdownTimeout = 10 * time.Second

// Registry registers collectors and serves them.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// NewRouter builds the API router.
func NewRouter(svc RouteService, cfg config.ServerConfig, logger *slog.Logger, reg Registry) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(promMiddleware(newHTTPMetrics(reg)))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	h := newRouteHandler(svc)
	r.Get("/health", h.health)
	r.Post("/shortest-path", h.shortestPath)
	r.Route("/api/routes", func(r chi.Router) {
		r.Post("/", h.computeRoute)
		r.Get("/{id}", h.getRoute)
	})
	return r
}

// Run serves handler on cfg.Addr until ctx is done, then shuts down
// gracefully.
func Run(ctx context.Context, handler http.Handler, cfg config.ServerConfig, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
