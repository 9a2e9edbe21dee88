package apiclient

import "time"

// GatewayStatus summarizes the host link.
type GatewayStatus struct {
	State            string `json:"state"`
	SignedOn         bool   `json:"signedOn"`
	SendConnected    bool   `json:"sendConnected"`
	ReceiveConnected bool   `json:"receiveConnected"`
}

// ChannelStatus summarizes the inbound listener.
type ChannelStatus struct {
	Protocol       string `json:"protocol"`
	Port           int    `json:"port"`
	ActiveSessions int32  `json:"activeSessions"`
}

// StatusResponse is the processor overview.
type StatusResponse struct {
	Service   string         `json:"service"`
	Version   string         `json:"version,omitempty"`
	StartedAt time.Time      `json:"startedAt"`
	Uptime    string         `json:"uptime"`
	Gateway   *GatewayStatus `json:"gateway,omitempty"`
	Server    *ChannelStatus `json:"server,omitempty"`
}

// RegistryStatistics counts pending-request registry outcomes.
type RegistryStatistics struct {
	Registered     uint64 `json:"registered"`
	Completed      uint64 `json:"completed"`
	TimedOut       uint64 `json:"timedOut"`
	Cancelled      uint64 `json:"cancelled"`
	CurrentPending int    `json:"currentPending"`
}

// GatewayStatistics carries the host link counters.
type GatewayStatistics struct {
	State              string             `json:"state"`
	SignedOn           bool               `json:"signedOn"`
	MessagesSent       uint64             `json:"messagesSent"`
	MessagesReceived   uint64             `json:"messagesReceived"`
	Matched            uint64             `json:"matched"`
	Unsolicited        uint64             `json:"unsolicited"`
	SendConnected      bool               `json:"sendConnected"`
	ReceiveConnected   bool               `json:"receiveConnected"`
	SendReconnects     uint64             `json:"sendReconnects"`
	ReceiveReconnects  uint64             `json:"receiveReconnects"`
	ReceiveStaleEvents uint64             `json:"receiveStaleEvents"`
	Registry           RegistryStatistics `json:"registry"`
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

// StatisticsResponse is the full counter dump.
type StatisticsResponse struct {
	Gateway *GatewayStatistics `json:"gateway,omitempty"`
	Server  *ServerStatistics  `json:"server,omitempty"`
	Events  *EventsStatistics  `json:"events,omitempty"`
}

// Status returns the processor overview.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Statistics returns the processor counters.
func (c *Client) Statistics() (*StatisticsResponse, error) {
	var resp StatisticsResponse
	if err := c.get("/api/v1/statistics", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
