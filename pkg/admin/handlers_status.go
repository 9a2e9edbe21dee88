package admin

import (
	"net/http"
	"time"

	"github.com/nilm987521/gofep/pkg/gateway"
)

// StatusHandler serves the processor overview endpoints.
type StatusHandler struct {
	rt *Runtime
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(rt *Runtime) *StatusHandler {
	return &StatusHandler{rt: rt}
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Service   string         `json:"service"`
	Version   string         `json:"version,omitempty"`
	StartedAt time.Time      `json:"startedAt"`
	Uptime    string         `json:"uptime"`
	Gateway   *GatewayStatus `json:"gateway,omitempty"`
	Server    *ChannelStatus `json:"server,omitempty"`
}

// GatewayStatus summarizes the host link.
type GatewayStatus struct {
	State            string `json:"state"`
	SignedOn         bool   `json:"signedOn"`
	SendConnected    bool   `json:"sendConnected"`
	ReceiveConnected bool   `json:"receiveConnected"`
}

// ChannelStatus summarizes one inbound listener.
type ChannelStatus struct {
	Protocol       string `json:"protocol"`
	Port           int    `json:"port"`
	ActiveSessions int32  `json:"activeSessions"`
}

// Status handles GET /api/v1/status.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Service:   "gofep",
		Version:   h.rt.Version,
		StartedAt: h.rt.StartedAt.UTC(),
		Uptime:    time.Since(h.rt.StartedAt).Round(time.Second).String(),
	}

	if h.rt.Gateway != nil {
		stats := h.rt.Gateway.Statistics()
		resp.Gateway = &GatewayStatus{
			State:            stats.State,
			SignedOn:         stats.SignedOn,
			SendConnected:    stats.SendConnected,
			ReceiveConnected: stats.ReceiveConnected,
		}
	}
	if h.rt.Listener != nil {
		resp.Server = &ChannelStatus{
			Protocol:       h.rt.Listener.Protocol(),
			Port:           h.rt.Listener.Port(),
			ActiveSessions: h.rt.Listener.GetActiveConnections(),
		}
	}

	WriteJSONOK(w, resp)
}

// StatisticsResponse is the body of GET /api/v1/statistics.
type StatisticsResponse struct {
	Gateway *gateway.Statistics `json:"gateway,omitempty"`
	Server  *ServerStatistics   `json:"server,omitempty"`
	Events  *EventsStatistics   `json:"events,omitempty"`
}

// ServerStatistics carries the inbound listener counters.
type ServerStatistics struct {
	Protocol       string `json:"protocol"`
	ActiveSessions int32  `json:"activeSessions"`
}

// EventsStatistics carries the event bus counters.
type EventsStatistics struct {
	Subscribers int    `json:"subscribers"`
	Dropped     uint64 `json:"dropped"`
}

// Statistics handles GET /api/v1/statistics.
func (h *StatusHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	var resp StatisticsResponse

	if h.rt.Gateway != nil {
		stats := h.rt.Gateway.Statistics()
		resp.Gateway = &stats
	}
	if h.rt.Listener != nil {
		resp.Server = &ServerStatistics{
			Protocol:       h.rt.Listener.Protocol(),
			ActiveSessions: h.rt.Listener.GetActiveConnections(),
		}
	}
	if h.rt.Bus != nil {
		resp.Events = &EventsStatistics{
			Subscribers: h.rt.Bus.SubscriberCount(),
			Dropped:     h.rt.Bus.Dropped(),
		}
	}

	WriteJSONOK(w, resp)
}
