// Package iso is the ISO 8583 channel session: it reads length-prefixed
// frames off accepted connections, decodes them through the provider field
// table and hands each request to the installed Handler. Replies flow back
// through a one-shot Responder, synchronously or later; requests nobody
// answers in time get a coded default reply.
package iso

import (
	"context"

	"github.com/nilm987521/gofep/internal/protocol/iso8583"
)

// Request is one decoded inbound message together with its session context.
type Request struct {
	// Channel labels the listener the message arrived on, e.g. "pos".
	Channel string

	// ClientID is the remote address of the session.
	ClientID string

	// SessionID identifies the session across requests; assigned at accept.
	SessionID string

	// Message is the decoded request.
	Message *iso8583.Message
}

// Responder delivers the reply for one request.
//
// One-shot: the first call wins, later calls return false without touching
// the wire. Safe for concurrent use; the session serializes writes.
type Responder interface {
	// Respond finalizes msg (response MTI, echoed correlation fields,
	// server timestamp) and writes it. The error reports a write failure
	// for the winning call only.
	Respond(msg *iso8583.Message) (bool, error)

	// RespondCode replies with just a response code in field 39.
	RespondCode(code string) (bool, error)
}

// Handler processes inbound financial traffic. Implementations either
// respond before returning or park the responder and answer later. Network
// management traffic never reaches the Handler; the session answers it
// internally.
//
// A returned error produces a system-malfunction reply for the request, so
// clients always see a coded answer for anything that decoded cleanly.
type Handler interface {
	Handle(ctx context.Context, req *Request, responder Responder) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request, responder Responder) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, req *Request, responder Responder) error {
	return f(ctx, req, responder)
}
