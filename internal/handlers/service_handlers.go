package handlers

import (
	"context"
	"leadchat-backend/internal/models"
	"leadchat-backend/pkg/httputil"
	"net/http"
	"time"
)

const (
	ServiceName    = "Cloud Miami API"
	ServiceVersion = "1.0.0"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Capabilities lists which external collaborators are configured.
type Capabilities struct {
	Model      bool
	ModelName  string // Chat model id; empty when chat is disabled
	Store      bool   // A persistent database, not the in-memory fallback
	Email      bool
	Slack      bool
	Admin      bool
	RateLimits bool
}

// ServiceHandlers serves the root descriptor and the health check.
type ServiceHandlers struct {
	store        Pinger
	capabilities Capabilities
	startTime    time.Time
}

func NewServiceHandlers(store Pinger, capabilities Capabilities) *ServiceHandlers {
	return &ServiceHandlers{
		store:        store,
		capabilities: capabilities,
		startTime:    time.Now(),
	}
}

// HandleRoot handles GET /.
func (h *ServiceHandlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, models.ServiceInfoResponse{
		Service: ServiceName,
		Version: ServiceVersion,
		Status:  "running",
		Model:   h.capabilities.ModelName,
		Capabilities: map[string]bool{
			"model":       h.capabilities.Model,
			"store":       h.capabilities.Store,
			"email":       h.capabilities.Email,
			"slack":       h.capabilities.Slack,
			"admin":       h.capabilities.Admin,
			"rate_limits": h.capabilities.RateLimits,
		},
		Endpoints: map[string]string{
			"chat":     "/api/chat",
			"leads":    "/api/leads",
			"admin":    "/api/admin",
			"calendar": "/api/calendar",
			"health":   "/health",
			"metrics":  "/metrics",
		},
	})
}

// HandleHealth handles GET /health. Returns 503 when the store is unreachable.
func (h *ServiceHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	deps := map[string]string{}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status := "healthy"
	if err := h.store.Ping(ctx); err != nil {
		deps["store"] = "unhealthy"
		status = "degraded"
	} else {
		deps["store"] = "healthy"
	}

	deps["model"] = configured(h.capabilities.Model)
	deps["email"] = configured(h.capabilities.Email)
	deps["slack"] = configured(h.capabilities.Slack)

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	httputil.RespondJSON(w, code, models.HealthResponse{
		Status:       status,
		Version:      ServiceVersion,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
