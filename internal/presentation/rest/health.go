package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// ServiceName is reported by the health endpoints.
const ServiceName = "profileguard"

const readinessTimeout = 2 * time.Second

// ReadinessCheck probes one dependency. A failing critical check makes the
// service not ready; a failing optional check is reported as degraded.
type ReadinessCheck struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// HealthHandler provides HTTP health check endpoints.
type HealthHandler struct {
	logger    *slog.Logger
	startTime time.Time
	checks    []ReadinessCheck
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(logger *slog.Logger, checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		startTime: time.Now(),
		checks:    checks,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

// RegisterRoutes registers health endpoints on the provided ServeMux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// Healthz handles liveness probe requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readyz probes every dependency in parallel under a shared deadline.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	results := make([]error, len(h.checks))
	var g errgroup.Group
	for i, c := range h.checks {
		g.Go(func() error {
			results[i] = c.Check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	resp := ReadinessResponse{Status: "ready", Service: ServiceName, Checks: map[string]string{}}
	code := http.StatusOK
	for i, c := range h.checks {
		err := results[i]
		if err == nil {
			resp.Checks[c.Name] = "ok"
			continue
		}
		if !c.Critical {
			resp.Checks[c.Name] = "degraded: " + err.Error()
			continue
		}
		resp.Checks[c.Name] = "error: " + err.Error()
		resp.Status, code = "not_ready", http.StatusServiceUnavailable
		h.logger.WarnContext(ctx, "readiness check failed", "check", c.Name, "error", err)
	}
	writeJSON(w, code, resp)
}
