package http

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the serve surface: published tables under /api/tables,
// liveness under /healthz and Prometheus metrics under /metrics.
func NewRouter(publishedDir string, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Mount("/tables", NewTableHandler(publishedDir, logger).Routes())
	})

	r.Get("/healthz", healthHandler(publishedDir))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// healthHandler reports liveness and whether a run has been published yet.
func healthHandler(publishedDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		published := true
		if _, err := os.Stat(publishedDir); os.IsNotExist(err) {
			published = false
		}
		render.JSON(w, r, map[string]interface{}{
			"status":        "ok",
			"run_published": published,
		})
	}
}
