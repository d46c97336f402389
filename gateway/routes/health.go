package routes

import (
	"context"
	"net/http"
	"time"

	negotiationv1 "aura/proto/negotiation/v1"
)

const readinessDeadline = 2 * time.Second

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz reports readiness based on engine reachability within a short
// deadline. The dependency map names each checked component so operators see
// what is red without reading logs.
func (h *handlers) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessDeadline)
	defer cancel()

	deps := map[string]string{"engine": "ok"}
	status := http.StatusOK
	if _, err := h.engine.Check(ctx, &negotiationv1.HealthCheckRequest{}); err != nil {
		deps["engine"] = "unreachable"
		status = http.StatusServiceUnavailable
	}
	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": overall, "dependencies": deps})
}
