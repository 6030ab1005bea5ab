// Package api exposes the composition pipeline and its cache over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/fundcomp/internal/monitoring"
	"github.com/sells-group/fundcomp/internal/pipeline"
)

// NewRouter wires the HTTP routes. metrics may be nil, in which case
// /api/metrics is not served.
func NewRouter(p *pipeline.Pipeline, metrics *monitoring.Collector, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}).Handler)

	h := NewHandler(p, metrics)
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Route("/composition", func(r chi.Router) {
			r.Get("/", h.Composition)
			r.Get("/month", h.CompositionMonth)
		})
		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", h.CacheStats)
			r.Post("/invalidate", h.InvalidateCache)
		})
		if metrics != nil {
			r.Get("/metrics", h.Metrics)
		}
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
