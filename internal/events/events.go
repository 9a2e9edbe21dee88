// Package events provides the in-process pub/sub bus the processor's
// components publish on, plus an optional Kafka forwarder for downstream
// consumers. Delivery is best-effort: slow subscribers lose events rather
// than stall the publisher, which sits on transaction hot paths.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types published by the processor.
const (
	// TypeGatewayState fires on every pair state transition.
	// Data: from, to, reason.
	TypeGatewayState = "fep.gateway.state"

	// TypeGatewayUnsolicited fires for inbound messages that matched no
	// pending request. Data: channel, mti, trace.
	TypeGatewayUnsolicited = "fep.gateway.unsolicited"

	// TypeTxnRequest carries an inbound financial request awaiting a
	// decision. Data: mti, trace, fields.
	TypeTxnRequest = "fep.txn.request"

	// TypeTxnResult carries the decision for a parked request.
	// Data: trace, responseCode, fields.
	TypeTxnResult = "fep.txn.result"

	// TypeServerSession fires when an inbound session is accepted or
	// closed. Data: action, remote, sessionId.
	TypeServerSession = "fep.server.session"

	// TypeFieldsReload fires when a field definition table is reloaded.
	// Data: provider, fields.
	TypeFieldsReload = "fep.fields.reload"
)

// Event is the envelope every publication uses. Data must stay
// JSON-serializable: events cross process boundaries through the Kafka
// forwarder and the admin websocket.
type Event struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Time   time.Time      `json:"time"`
	Source string         `json:"source"`
	Data   map[string]any `json:"data,omitempty"`
}

// New builds an event with a fresh ID and the current time.
func New(eventType, source string, data map[string]any) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   eventType,
		Time:   time.Now().UTC(),
		Source: source,
		Data:   data,
	}
}
