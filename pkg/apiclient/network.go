package apiclient

// EchoResult reports a completed echo round trip.
type EchoResult struct {
	LatencyMs float64 `json:"latencyMs"`
}

// NetworkEcho sends an echo test through the gateway and reports the host
// round trip.
func (c *Client) NetworkEcho() (*EchoResult, error) {
	var resp EchoResult
	if err := c.post("/api/v1/network/echo", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NetworkSignOn requests a manual sign-on exchange with the host.
func (c *Client) NetworkSignOn() error {
	return c.post("/api/v1/network/signon", nil, nil)
}

// NetworkSignOff requests a manual sign-off exchange with the host.
func (c *Client) NetworkSignOff() error {
	return c.post("/api/v1/network/signoff", nil, nil)
}
