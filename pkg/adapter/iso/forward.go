package iso

import (
	"context"
	"errors"
	"time"

	"github.com/nilm987521/gofep/internal/protocol/iso8583"
	"github.com/nilm987521/gofep/pkg/gateway"
)

// Forwarder is the outbound host link a ForwardHandler relays through.
// *gateway.Gateway implements it.
type Forwarder interface {
	SendAndReceive(ctx context.Context, msg *iso8583.Message, timeout time.Duration) (*iso8583.Message, error)
}

// NewForwardHandler returns the relaying financial handler: every request is
// sent to the interbank host and the host's answer written back to the
// acquiring channel.
//
// The host leg runs under the gateway's own trace numbering so two channels
// presenting the same trace never collide in the pending registry; the
// client's trace is restored on the reply. Host failures map to coded
// replies: timeout and link loss answer issuer-unavailable, a full in-flight
// window answers system-malfunction.
func NewForwardHandler(host Forwarder, timeout time.Duration) Handler {
	return HandlerFunc(func(ctx context.Context, req *Request, responder Responder) error {
		out := req.Message.Clone()
		out.ClearField(iso8583.FieldTrace)

		resp, err := host.SendAndReceive(ctx, out, timeout)
		if err != nil {
			switch {
			case errors.Is(err, gateway.ErrTimeout),
				errors.Is(err, gateway.ErrConnectionDown),
				errors.Is(err, gateway.ErrShutdown):
				_, werr := responder.RespondCode(iso8583.RespIssuerUnavailable)
				return werr
			case errors.Is(err, gateway.ErrOverloaded):
				_, werr := responder.RespondCode(iso8583.RespSystemMalfunction)
				return werr
			default:
				return err
			}
		}

		reply := resp.Clone()
		if trace, ok := req.Message.Field(iso8583.FieldTrace); ok {
			reply.SetField(iso8583.FieldTrace, trace)
		}
		_, werr := responder.Respond(reply)
		return werr
	})
}
