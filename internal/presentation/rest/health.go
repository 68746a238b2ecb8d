package rest

import (
	"log/slog"
	"net/http"
	"time"
)

// ReadinessChecker reports whether the score providers are loaded.
type ReadinessChecker interface {
	Ready() bool
}

// HealthHandler provides HTTP health check endpoints for the fraud service.
type HealthHandler struct {
	providers ReadinessChecker
	logger    *slog.Logger
	startTime time.Time
	service   string
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(service string, providers ReadinessChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		providers: providers,
		logger:    logger,
		startTime: time.Now(),
		service:   service,
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
	Checks  map[string]string `json:"checks"`
	Status  string            `json:"status"`
	Service string            `json:"service"`
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
		Service: h.service,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readyz handles readiness probe requests. It answers 503 until the score
// providers are published.
func (h *HealthHandler) Readyz(w http.ResponseWriter, _ *http.Request) {
	resp := ReadinessResponse{
		Status:  "ready",
		Service: h.service,
		Checks:  map[string]string{"providers": "ok"},
	}
	code := http.StatusOK

	if !h.providers.Ready() {
		resp.Status = "not ready"
		resp.Checks["providers"] = "loading"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, resp)
}
