package admin

import (
	"context"
	"time"

	"github.com/nilm987521/gofep/internal/events"
	"github.com/nilm987521/gofep/internal/protocol/iso8583"
	"github.com/nilm987521/gofep/pkg/gateway"
)

// GatewayController is the slice of the host gateway the admin API drives.
// *gateway.Gateway implements it; tests substitute fakes.
type GatewayController interface {
	Statistics() gateway.Statistics
	Echo(ctx context.Context) (time.Duration, error)
	SignOn(ctx context.Context) error
	SignOff(ctx context.Context) error
}

// ChannelListener is the read-only view of an inbound channel listener.
// The ISO 8583 adapter implements it through its embedded base.
type ChannelListener interface {
	Protocol() string
	Port() int
	GetActiveConnections() int32
}

// Runtime aggregates the running components the admin API reports on and
// controls. Nil members mean the component is disabled; handlers answer
// accordingly instead of failing.
type Runtime struct {
	// Gateway is the outbound host link, nil when disabled.
	Gateway GatewayController

	// Listener is the inbound channel server, nil when disabled.
	Listener ChannelListener

	// Tables holds the field definition providers.
	Tables *iso8583.TableRegistry

	// Bus is the event bus behind the websocket stream, nil when absent.
	Bus *events.Bus

	// Version is the build version reported by /api/v1/status.
	Version string

	// StartedAt anchors the uptime calculation.
	StartedAt time.Time
}
