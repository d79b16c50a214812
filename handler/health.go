package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/mstgnz/paynow/infra/response"
)

// HealthCheck checks one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler handles health check requests
type HealthHandler struct {
	environment string
	checks      map[string]HealthCheck
	optional    map[string]bool
	startTime   time.Time
}

// HealthStatus represents overall service health
type HealthStatus struct {
	Status      string                    `json:"status"`
	Timestamp   time.Time                 `json:"timestamp"`
	Uptime      string                    `json:"uptime"`
	Environment string                    `json:"environment"`
	GoRoutines  int                       `json:"goroutines"`
	Services    map[string]*ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual dependency health
type ServiceHealth struct {
	Status       string `json:"status"`
	Healthy      bool   `json:"healthy"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(environment string) *HealthHandler {
	return &HealthHandler{
		environment: environment,
		checks:      make(map[string]HealthCheck),
		optional:    make(map[string]bool),
		startTime:   time.Now(),
	}
}

// AddCheck registers a dependency the service cannot work without
func (h *HealthHandler) AddCheck(name string, check HealthCheck) *HealthHandler {
	h.checks[name] = check
	return h
}

// AddOptionalCheck registers a dependency whose failure only degrades the service
func (h *HealthHandler) AddOptionalCheck(name string, check HealthCheck) *HealthHandler {
	h.checks[name] = check
	h.optional[name] = true
	return h
}

// CheckHealth handles GET /health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := &HealthStatus{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Environment: h.environment,
		GoRoutines:  runtime.NumGoroutine(),
		Services:    make(map[string]*ServiceHealth, len(h.checks)),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		start := time.Now()
		err := h.checks[name](ctx)
		svc := &ServiceHealth{
			Status:       "healthy",
			Healthy:      err == nil,
			ResponseTime: time.Since(start).String(),
		}
		if err != nil {
			svc.Status = "unhealthy"
			svc.Error = err.Error()
			switch {
			case !h.optional[name]:
				health.Status = "unhealthy"
			case health.Status == "healthy":
				health.Status = "degraded"
			}
		}
		health.Services[name] = svc
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	response.WriteJSON(w, statusCode, response.Response{
		Code:    statusCode,
		Success: health.Status != "unhealthy",
		Message: fmt.Sprintf("Service is %s", health.Status),
		Data:    health,
	})
}
