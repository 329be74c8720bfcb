package handlers

import (
	"context"
	"log"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool and *database.RedisClients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the datastores answer. Any failing
// dependency turns the response into a 503.
type HealthHandler struct {
	deps map[string]Pinger
}

func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			log.Printf("Health check failed for %s: %v", name, err)
			body[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		body[name] = "ok"
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	writeJSON(w, status, body)
}
