package admin

import (
	"errors"
	"net/http"

	"github.com/nilm987521/gofep/pkg/gateway"
)

// NetworkHandler triggers network management exchanges on the host link.
type NetworkHandler struct {
	gw GatewayController
}

// NewNetworkHandler creates a new network handler. gw may be nil when the
// gateway is disabled; every endpoint then answers 503.
func NewNetworkHandler(gw GatewayController) *NetworkHandler {
	return &NetworkHandler{gw: gw}
}

// EchoResponse is the body of POST /api/v1/network/echo.
type EchoResponse struct {
	LatencyMs float64 `json:"latencyMs"`
}

// Echo handles POST /api/v1/network/echo - one 0800/301 round trip.
func (h *NetworkHandler) Echo(w http.ResponseWriter, r *http.Request) {
	if h.gw == nil {
		ServiceUnavailable(w, "Gateway is not enabled")
		return
	}

	latency, err := h.gw.Echo(r.Context())
	if err != nil {
		writeGatewayError(w, "Echo failed", err)
		return
	}
	WriteJSONOK(w, EchoResponse{LatencyMs: float64(latency.Microseconds()) / 1000.0})
}

// SignOn handles POST /api/v1/network/signon - the 0800/001 exchange.
func (h *NetworkHandler) SignOn(w http.ResponseWriter, r *http.Request) {
	if h.gw == nil {
		ServiceUnavailable(w, "Gateway is not enabled")
		return
	}

	if err := h.gw.SignOn(r.Context()); err != nil {
		writeGatewayError(w, "Sign-on failed", err)
		return
	}
	WriteNoContent(w)
}

// SignOff handles POST /api/v1/network/signoff - the 0800/002 exchange.
func (h *NetworkHandler) SignOff(w http.ResponseWriter, r *http.Request) {
	if h.gw == nil {
		ServiceUnavailable(w, "Gateway is not enabled")
		return
	}

	if err := h.gw.SignOff(r.Context()); err != nil {
		writeGatewayError(w, "Sign-off failed", err)
		return
	}
	WriteNoContent(w)
}

// writeGatewayError maps gateway errors onto problem responses: connection
// problems are 503, a response timeout is 504, anything else 500.
func writeGatewayError(w http.ResponseWriter, action string, err error) {
	detail := action + ": " + err.Error()
	switch {
	case errors.Is(err, gateway.ErrConnectionDown), errors.Is(err, gateway.ErrShutdown):
		ServiceUnavailable(w, detail)
	case errors.Is(err, gateway.ErrTimeout):
		GatewayTimeout(w, detail)
	default:
		InternalServerError(w, detail)
	}
}
