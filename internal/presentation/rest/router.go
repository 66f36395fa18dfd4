package rest

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Assessments   *AssessmentHandler
	Health        *HealthHandler
	Metrics       http.Handler
	PolicyVersion string
	Limiter       *rate.Limiter
	Logger        *slog.Logger
}

// NewRouter builds the HTTP handler. Only the /api/ routes are rate limited.
func NewRouter(cfg RouterConfig) http.Handler {
	api := http.NewServeMux()
	cfg.Assessments.RegisterRoutes(api)

	mux := http.NewServeMux()
	mux.Handle("/api/", RateLimitMiddleware(cfg.Limiter)(api))
	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(mux)
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	return Chain(mux,
		LoggingMiddleware(cfg.Logger),
		PolicyVersionMiddleware(cfg.PolicyVersion),
	)
}
