// Package services declares the seams to collaborators that live outside
// the processor: HSM-backed cryptography, settlement reconciliation and
// transaction journaling. The engine consumes these interfaces only; the
// no-op defaults keep a bare deployment runnable without any of them.
package services

import (
	"context"

	"github.com/nilm987521/gofep/internal/protocol/iso8583"
)

// ============================================================================
// Crypto
// ============================================================================

// Crypto is the seam to the HSM-backed key store. The engine never holds
// key material: implementations talk to the HSM and hand back only check
// values and verdicts.
type Crypto interface {
	// ExchangeKey processes a 0800/101 key-exchange request and returns
	// the key check value to carry in the reply. An error declines the
	// exchange.
	ExchangeKey(ctx context.Context, req *iso8583.Message) (string, error)

	// GenerateMAC computes the authentication code for field 128 of an
	// outbound message.
	GenerateMAC(ctx context.Context, msg *iso8583.Message) (string, error)

	// VerifyMAC checks field 128 of an inbound message against the
	// session key. Messages without field 128 are not passed here.
	VerifyMAC(ctx context.Context, msg *iso8583.Message) error
}

// NoopCrypto accepts every exchange and every MAC without touching an HSM.
// The default for links that do not authenticate messages.
type NoopCrypto struct{}

func (NoopCrypto) ExchangeKey(context.Context, *iso8583.Message) (string, error) {
	return "", nil
}

func (NoopCrypto) GenerateMAC(context.Context, *iso8583.Message) (string, error) {
	return "", nil
}

func (NoopCrypto) VerifyMAC(context.Context, *iso8583.Message) error { return nil }

var _ Crypto = NoopCrypto{}
