package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/status", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(StatusResponse{
			Service: "gofep",
			Version: "1.2.3",
			Uptime:  "3h2m1s",
			Gateway: &GatewayStatus{State: "SIGNED_ON", SignedOn: true},
			Server:  &ChannelStatus{Protocol: "ISO8583", Port: 8583, ActiveSessions: 12},
		})
	}))
	defer server.Close()

	client := New(server.URL).WithToken("test-token")
	status, err := client.Status()

	require.NoError(t, err)
	assert.Equal(t, "gofep", status.Service)
	require.NotNil(t, status.Gateway)
	assert.Equal(t, "SIGNED_ON", status.Gateway.State)
	require.NotNil(t, status.Server)
	assert.Equal(t, int32(12), status.Server.ActiveSessions)
}

func TestStatistics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/statistics", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(StatisticsResponse{
			Gateway: &GatewayStatistics{
				State:        "SIGNED_ON",
				MessagesSent: 100,
				Matched:      98,
				Registry:     RegistryStatistics{Registered: 100, Completed: 98, TimedOut: 2},
			},
			Events: &EventsStatistics{Subscribers: 1},
		})
	}))
	defer server.Close()

	client := New(server.URL).WithToken("test-token")
	stats, err := client.Statistics()

	require.NoError(t, err)
	require.NotNil(t, stats.Gateway)
	assert.Equal(t, uint64(100), stats.Gateway.MessagesSent)
	assert.Equal(t, uint64(2), stats.Gateway.Registry.TimedOut)
	require.NotNil(t, stats.Events)
	assert.Equal(t, 1, stats.Events.Subscribers)
}
