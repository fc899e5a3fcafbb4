package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck is one named dependency probe
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// CatalogStatus reports the state of the in-memory catalog
type CatalogStatus interface {
	Len() int
	RefreshedAt() time.Time
}

// HealthHandler reports service and dependency health
type HealthHandler struct {
	catalog CatalogStatus
	checks  []HealthCheck
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(catalog CatalogStatus, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{catalog: catalog, checks: checks}
}

// Health handles GET /health. Any failing dependency turns the response
// into 503 so load balancers stop routing to the instance.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	dependencies := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			dependencies[c.Name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		dependencies[c.Name] = "ok"
	}

	body := map[string]interface{}{
		"status":       status,
		"dependencies": dependencies,
	}
	if h.catalog != nil {
		body["catalog"] = map[string]interface{}{
			"listings":     h.catalog.Len(),
			"refreshed_at": h.catalog.RefreshedAt(),
		}
	}
	respondWithJSON(w, code, body)
}
