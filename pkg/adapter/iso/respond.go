package iso

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/nilm987521/gofep/internal/logger"
	"github.com/nilm987521/gofep/internal/protocol/iso8583"
)

// echoedFields are copied from every request into its reply so the client
// can correlate and reconcile without re-parsing its own state.
var echoedFields = []int{
	iso8583.FieldPAN,
	iso8583.FieldProcessingCode,
	iso8583.FieldAmount,
	iso8583.FieldTrace,
	iso8583.FieldTerminalID,
	iso8583.FieldMerchantID,
}

// buildReply finalizes msg as the answer to req: response MTI, echoed
// correlation fields and the server clock in field 7. Fields already set on
// msg win over the echo, so handlers may override any of them.
func buildReply(req *iso8583.Message, msg *iso8583.Message) (*iso8583.Message, error) {
	mti, err := iso8583.ResponseMTI(req.MTI())
	if err != nil {
		return nil, err
	}
	out := msg.Clone()
	out.SetMTI(mti)

	for _, n := range echoedFields {
		if out.Has(n) {
			continue
		}
		if v, ok := req.Field(n); ok {
			out.SetField(n, v)
		}
	}
	out.SetField(iso8583.FieldTransmissionTime, iso8583.TransmissionTimestamp(time.Now()))

	// Approvals carry an authorization code; keep the handler's when given.
	if out.FieldOr(iso8583.FieldResponseCode, "") == iso8583.RespApproved &&
		!out.Has(iso8583.FieldAuthCode) && !iso8583.IsNetworkMTI(mti) {
		out.SetField(iso8583.FieldAuthCode, newAuthCode())
	}
	return out, nil
}

// newAuthCode returns a 6-digit authorization identification response.
func newAuthCode() string {
	return fmt.Sprintf("%06d", rand.IntN(1_000_000))
}

// responder is the one-shot reply path for a single request. The session
// arms a default-reply timer alongside it; whoever calls first wins.
type responder struct {
	session *session
	req     *iso8583.Message
	start   time.Time

	mu   sync.Mutex
	done bool
}

var _ Responder = (*responder)(nil)

// Respond implements Responder.
func (r *responder) Respond(msg *iso8583.Message) (bool, error) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return false, nil
	}
	r.done = true
	r.mu.Unlock()

	reply, err := buildReply(r.req, msg)
	if err != nil {
		logger.Error("cannot build reply", "mti", r.req.MTI(), "error", err)
		return true, err
	}

	writeErr := r.session.writeMessage(reply)
	if writeErr == nil {
		r.session.journalReply(r.req, reply)
	}
	if m := r.session.adapter.metrics; m != nil {
		m.RecordRequest(r.req.MTI(), time.Since(r.start),
			reply.FieldOr(iso8583.FieldResponseCode, ""))
	}
	return true, writeErr
}

// RespondCode implements Responder.
func (r *responder) RespondCode(code string) (bool, error) {
	msg := iso8583.NewMessage(r.req.MTI())
	msg.SetField(iso8583.FieldResponseCode, code)
	return r.Respond(msg)
}

// responded reports whether the reply was already sent.
func (r *responder) responded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}
