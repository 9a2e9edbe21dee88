package admin

import (
	"net/http"
	"time"

	"github.com/nilm987521/gofep/pkg/gateway"
)

// HealthHandler handles the unauthenticated health probes.
//
//   - Liveness: is the server process running?
//   - Readiness: can the processor carry traffic?
type HealthHandler struct {
	rt *Runtime
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(rt *Runtime) *HealthHandler {
	return &HealthHandler{rt: rt}
}

type healthResponse struct {
	Status     string         `json:"status"`
	Service    string         `json:"service"`
	StartedAt  string         `json:"started_at,omitempty"`
	Uptime     string         `json:"uptime,omitempty"`
	Error      string         `json:"error,omitempty"`
	Components map[string]any `json:"components,omitempty"`
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK as long as the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Service: "gofep"}
	if h.rt != nil && !h.rt.StartedAt.IsZero() {
		uptime := time.Since(h.rt.StartedAt)
		resp.StartedAt = h.rt.StartedAt.UTC().Format(time.RFC3339)
		resp.Uptime = uptime.Round(time.Second).String()
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Readiness handles GET /health/ready - readiness probe.
//
// Ready means every enabled component can do its job: a gateway must not be
// FAILED and a configured listener must be present. Disabled components do
// not count against readiness.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.rt == nil {
		WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:  "unhealthy",
			Service: "gofep",
			Error:   "runtime not initialized",
		})
		return
	}

	components := make(map[string]any)
	ready := true

	if h.rt.Gateway != nil {
		stats := h.rt.Gateway.Statistics()
		components["gateway"] = map[string]any{
			"state":    stats.State,
			"signedOn": stats.SignedOn,
		}
		if stats.State == gateway.PairFailed.String() {
			ready = false
		}
	}
	if h.rt.Listener != nil {
		components["server"] = map[string]any{
			"protocol":       h.rt.Listener.Protocol(),
			"port":           h.rt.Listener.Port(),
			"activeSessions": h.rt.Listener.GetActiveConnections(),
		}
	}

	resp := healthResponse{Status: "ok", Service: "gofep", Components: components}
	if !h.rt.StartedAt.IsZero() {
		resp.StartedAt = h.rt.StartedAt.UTC().Format(time.RFC3339)
		resp.Uptime = time.Since(h.rt.StartedAt).Round(time.Second).String()
	}
	status := http.StatusOK
	if !ready {
		resp.Status = "unhealthy"
		resp.Error = "gateway failed"
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, resp)
}
