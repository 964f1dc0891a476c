package handlers

import (
	"context"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status  string                 `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks,omitempty"`
}

type HealthCheck struct {
	Status  string      `json:"status"`
	Latency string      `json:"latency,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Pinger is a dependency the health endpoint can probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports the status of MongoDB, Redis and the realtime hub
type HealthHandler struct {
	version string
	checks  map[string]Pinger
	details map[string]func() interface{}
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version: version,
		checks:  map[string]Pinger{},
		details: map[string]func() interface{}{},
	}
}

// Check registers a dependency probed on every request
func (h *HealthHandler) Check(name string, p Pinger) *HealthHandler {
	if p != nil {
		h.checks[name] = p
	}
	return h
}

// Detail registers informational data reported without affecting status
func (h *HealthHandler) Detail(name string, fn func() interface{}) *HealthHandler {
	h.details[name] = fn
	return h
}

func (h *HealthHandler) GetOverallHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Service: "kumbhmela-leads-api",
		Version: h.version,
		Checks:  make(map[string]HealthCheck, len(h.checks)+len(h.details)),
	}

	allHealthy := true
	for name, p := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		start := time.Now()
		err := p.Ping(ctx)
		cancel()

		check := HealthCheck{Status: "healthy", Latency: time.Since(start).String()}
		if err != nil {
			allHealthy = false
			check.Status = "unhealthy"
			check.Error = err.Error()
		}
		response.Checks[name] = check
	}
	for name, fn := range h.details {
		response.Checks[name] = HealthCheck{Status: "healthy", Details: fn()}
	}

	status := http.StatusOK
	response.Status = "healthy"
	if !allHealthy {
		status = http.StatusServiceUnavailable
		response.Status = "unhealthy"
	}
	respondWithJSON(w, status, response)
}
