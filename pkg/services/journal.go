package services

import (
	"context"
	"strings"
	"time"

	"github.com/nilm987521/gofep/internal/protocol/iso8583"
)

// ============================================================================
// Journal
// ============================================================================

// Direction tells which side of the wire produced an entry.
type Direction string

const (
	DirectionInbound  Direction = "IN"
	DirectionOutbound Direction = "OUT"
)

// Entry is one journal line: the auditable digest of a message that crossed
// the wire. PANs are stored masked; full card numbers never leave the codec.
type Entry struct {
	Time           time.Time `json:"time"`
	Direction      Direction `json:"direction"`
	Channel        string    `json:"channel,omitempty"`
	Client         string    `json:"client,omitempty"`
	MTI            string    `json:"mti"`
	Trace          string    `json:"trace,omitempty"`
	PAN            string    `json:"pan,omitempty"`
	ProcessingCode string    `json:"processingCode,omitempty"`
	Amount         string    `json:"amount,omitempty"`
	ResponseCode   string    `json:"responseCode,omitempty"`
}

// NewEntry digests a message into an entry stamped with the current time.
func NewEntry(direction Direction, channel, client string, msg *iso8583.Message) Entry {
	return Entry{
		Time:           time.Now(),
		Direction:      direction,
		Channel:        channel,
		Client:         client,
		MTI:            msg.MTI(),
		Trace:          msg.FieldOr(iso8583.FieldTrace, ""),
		PAN:            MaskPAN(msg.FieldOr(iso8583.FieldPAN, "")),
		ProcessingCode: msg.FieldOr(iso8583.FieldProcessingCode, ""),
		Amount:         msg.FieldOr(iso8583.FieldAmount, ""),
		ResponseCode:   msg.FieldOr(iso8583.FieldResponseCode, ""),
	}
}

// MaskPAN keeps the issuer prefix and the last four digits. Values too short
// to mask meaningfully are fully replaced.
func MaskPAN(pan string) string {
	if pan == "" {
		return ""
	}
	if len(pan) <= 10 {
		return strings.Repeat("*", len(pan))
	}
	return pan[:6] + strings.Repeat("*", len(pan)-10) + pan[len(pan)-4:]
}

// Journal persists transaction digests for audit and dispute handling.
// Implementations must be safe for concurrent use. Journal failures are
// logged by the caller and never block traffic.
type Journal interface {
	Record(ctx context.Context, e Entry) error
}

// NoopJournal discards every entry.
type NoopJournal struct{}

func (NoopJournal) Record(context.Context, Entry) error { return nil }

var _ Journal = NoopJournal{}
