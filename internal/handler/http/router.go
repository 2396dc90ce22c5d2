package http

import (
	"net/http"

	"shortlink/pkg/logger"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions toggles optional routes.
type RouterOptions struct {
	MetricsEnabled bool
}

// NewRouter wires the handlers and middleware into a chi router.
//
// Static paths (/404, /ping, /metrics) take precedence over /{short_code};
// none of them can be a generated code since those are always 8 hex chars.
func NewRouter(h *Handler, log *logger.Logger, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(MetricsMiddleware)
	r.Use(RecoveryMiddleware(log))

	r.Get("/", h.Home)
	r.Get(NotFoundPath, h.NotFoundPage)
	r.Get("/ping", h.Ping)
	if opts.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Post("/shorten", h.Shorten)
	r.Get("/get/{short_code}", h.Resolve)
	r.Get("/{short_code}", h.Redirect)

	return r
}
