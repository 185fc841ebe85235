// Package httpserver assembles the chi router and http.Server both services
// share: middleware stack, health-independent plumbing, metrics endpoint, and
// the JSON 404 envelope for unknown routes.
package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vouch/internal/platform/metrics"
	"vouch/internal/platform/middleware"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
)

// maxBodyBytes caps credential payloads at 10MB.
const maxBodyBytes = 10 << 20

// Registrar mounts a set of routes on the router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires the middleware stack, the /metrics endpoint, the unknown
// route handler, and every registrar's routes. When a metric set is given,
// every request's duration is recorded against its route pattern.
func NewRouter(logger *slog.Logger, allowedOrigins []string, gatherer prometheus.Gatherer, metricSet *metrics.Metrics, registrars ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	if metricSet != nil {
		r.Use(endpointLatency(metricSet))
	}
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound,
			fmt.Sprintf("Route %s not found", req.URL.Path)))
	})

	if gatherer != nil {
		r.Get("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	}

	for _, registrar := range registrars {
		registrar.Register(r)
	}

	return r
}

// endpointLatency observes request durations against the matched chi route
// pattern, falling back to the raw path for unmatched routes.
func endpointLatency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, req)

			endpoint := req.URL.Path
			if rc := chi.RouteContext(req.Context()); rc != nil && rc.RoutePattern() != "" {
				endpoint = rc.RoutePattern()
			}
			m.ObserveEndpointLatency(endpoint, time.Since(start).Seconds())
		})
	}
}

// New builds an http.Server with sane timeouts around the given handler.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
