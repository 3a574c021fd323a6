package api

import (
	"net/http"

	"hoststatus/internal/ratelimit"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName))
	}
}

// WithRateLimit throttles /status per client. Unserved routes are not
// counted against the limit.
func WithRateLimit(limiter ratelimit.Limiter, trustProxyHeaders bool) RouteOption {
	return func(r *mux.Router) {
		r.Use(ratelimit.Middleware(limiter, trustProxyHeaders))
	}
}

// SetupRoutes configures the HTTP routes. Only GET /status is served;
// every other path or method gets an empty 403.
func SetupRoutes(handlers *Handlers, opts ...RouteOption) *mux.Router {
	// Paths are matched as sent; /./status is not /status.
	router := mux.NewRouter().SkipClean(true)

	for _, opt := range opts {
		opt(router)
	}

	router.HandleFunc("/status", handlers.Status).Methods(http.MethodGet)

	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)

	// mux only runs middleware for matched routes, so wrap the fallbacks directly.
	forbidden := loggingMiddleware(http.HandlerFunc(handlers.Forbidden))
	router.NotFoundHandler = forbidden
	router.MethodNotAllowedHandler = forbidden

	return router
}
