package iso8583

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Round trips
// ============================================================================

func TestCodec_RoundTripFinancialRequest(t *testing.T) {
	t.Parallel()

	c := NewCodec(DefaultTable())
	m := NewMessage(MTIFinancialRequest)
	m.SetField(FieldPAN, "4000123412341234")
	m.SetField(FieldProcessingCode, "000000")
	m.SetField(FieldAmount, "000000015000")
	m.SetField(FieldTransmissionTime, "0825143000")
	m.SetField(FieldTrace, "000042")
	m.SetField(FieldTerminalID, "TERM0001")
	m.SetField(FieldMerchantID, "MERCHANT0000001")

	body, err := c.Encode(m)
	require.NoError(t, err)

	back, err := c.Decode(body)
	require.NoError(t, err)
	assert.Equal(t, m.MTI(), back.MTI())
	assert.Equal(t, m.Fields(), back.Fields())
	for _, n := range m.Fields() {
		assert.Equal(t, m.FieldOr(n, ""), back.FieldOr(n, ""), "field %d", n)
	}
}

func TestCodec_OddDigitVariablePAN(t *testing.T) {
	t.Parallel()

	// 15-digit PANs pack into 8 bytes with a pad nibble. The length prefix
	// counts digits, so the decoder recovers exactly 15.
	c := NewCodec(DefaultTable())
	m := NewMessage(MTIFinancialRequest)
	m.SetField(FieldPAN, "400012341234123")
	m.SetField(FieldTrace, "000001")

	body, err := c.Encode(m)
	require.NoError(t, err)

	back, err := c.Decode(body)
	require.NoError(t, err)
	assert.Equal(t, "400012341234123", back.FieldOr(FieldPAN, ""))
}

func TestCodec_OddDigitFixedField(t *testing.T) {
	t.Parallel()

	// Field 70 is a fixed 3-digit BCD value occupying two bytes.
	c := NewCodec(DefaultTable())
	m := NewMessage(MTINetworkRequest)
	m.SetField(FieldNetMgmtCode, "301")
	m.SetField(FieldTrace, "000009")

	body, err := c.Encode(m)
	require.NoError(t, err)

	back, err := c.Decode(body)
	require.NoError(t, err)
	assert.Equal(t, "301", back.FieldOr(FieldNetMgmtCode, ""))
}

func TestCodec_LeadingZerosPreserved(t *testing.T) {
	t.Parallel()

	c := NewCodec(DefaultTable())
	m := NewMessage(MTIFinancialRequest)
	m.SetField(FieldAmount, "000000000001")
	m.SetField(FieldTrace, "000001")

	body, err := c.Encode(m)
	require.NoError(t, err)

	back, err := c.Decode(body)
	require.NoError(t, err)
	assert.Equal(t, "000000000001", back.FieldOr(FieldAmount, ""))
}

func TestCodec_ShortNumericFixedFieldIsZeroPadded(t *testing.T) {
	t.Parallel()

	// A 4-digit amount in the 12-digit field comes back left-padded; the
	// numeric value is unchanged.
	c := NewCodec(DefaultTable())
	m := NewMessage(MTIFinancialRequest)
	m.SetField(FieldAmount, "5000")
	m.SetField(FieldTrace, "000001")

	body, err := c.Encode(m)
	require.NoError(t, err)

	back, err := c.Decode(body)
	require.NoError(t, err)
	assert.Equal(t, "000000005000", back.FieldOr(FieldAmount, ""))
}

func TestCodec_TextPaddingTrimmed(t *testing.T) {
	t.Parallel()

	// Terminal IDs shorter than the fixed 8 characters pad with spaces on
	// the wire and come back trimmed.
	c := NewCodec(DefaultTable())
	m := NewMessage(MTIFinancialRequest)
	m.SetField(FieldTerminalID, "ATM01")
	m.SetField(FieldTrace, "000001")

	body, err := c.Encode(m)
	require.NoError(t, err)

	back, err := c.Decode(body)
	require.NoError(t, err)
	assert.Equal(t, "ATM01", back.FieldOr(FieldTerminalID, ""))
}

func TestCodec_BinaryFieldHexRoundTrip(t *testing.T) {
	t.Parallel()

	c := NewCodec(DefaultTable())
	m := NewMessage(MTIFinancialRequest)
	m.SetField(FieldTrace, "000001")
	m.SetField(FieldMAC, "00ff12ab34cd56ef")

	body, err := c.Encode(m)
	require.NoError(t, err)

	back, err := c.Decode(body)
	require.NoError(t, err)
	assert.Equal(t, "00FF12AB34CD56EF", back.FieldOr(FieldMAC, ""), "binary values normalize to upper-case hex")
}

func TestCodec_SecondaryBitmapOnWire(t *testing.T) {
	t.Parallel()

	c := NewCodec(DefaultTable())

	low := NewMessage(MTIFinancialRequest)
	low.SetField(FieldTrace, "000001")
	body, err := c.Encode(low)
	require.NoError(t, err)
	// 2 bytes MTI + 8 bytes primary bitmap + 3 bytes packed trace.
	assert.Len(t, body, 13)

	high := NewMessage(MTINetworkRequest)
	high.SetField(FieldTrace, "000001")
	high.SetField(FieldNetMgmtCode, "001")
	body, err = c.Encode(high)
	require.NoError(t, err)
	// The secondary half adds 8 bytes, field 70 adds 2.
	assert.Len(t, body, 23)
	assert.Equal(t, byte(0x80), body[2]&0x80, "bit 1 announces the secondary bitmap")
}

// ============================================================================
// Framing
// ============================================================================

func TestCodec_FrameRoundTrip(t *testing.T) {
	t.Parallel()

	c := NewCodec(DefaultTable())
	m := NewMessage(MTINetworkRequest)
	m.SetField(FieldTrace, "000031")
	m.SetField(FieldNetMgmtCode, "301")

	var wire bytes.Buffer
	require.NoError(t, c.WriteFrame(&wire, m))

	// The header carries the body byte count in 4 BCD digits.
	frame := wire.Bytes()
	bodyLen, err := decodeBCDUint(frame[:2])
	require.NoError(t, err)
	assert.Equal(t, len(frame)-2, bodyLen)

	back, err := c.ReadFrame(&wire)
	require.NoError(t, err)
	assert.Equal(t, m.MTI(), back.MTI())
	assert.Equal(t, "000031", back.FieldOr(FieldTrace, ""))
}

func TestCodec_ReadFrameSequential(t *testing.T) {
	t.Parallel()

	c := NewCodec(DefaultTable())
	var wire bytes.Buffer
	for _, trace := range []string{"000001", "000002", "000003"} {
		m := NewMessage(MTIFinancialRequest)
		m.SetField(FieldTrace, trace)
		require.NoError(t, c.WriteFrame(&wire, m))
	}

	for _, trace := range []string{"000001", "000002", "000003"} {
		m, err := c.ReadFrame(&wire)
		require.NoError(t, err)
		assert.Equal(t, trace, m.FieldOr(FieldTrace, ""))
	}

	_, err := c.ReadFrame(&wire)
	assert.Equal(t, io.EOF, err, "clean EOF between frames stays io.EOF")
}

func TestCodec_ReadFrameTruncatedBody(t *testing.T) {
	t.Parallel()

	c := NewCodec(DefaultTable())
	m := NewMessage(MTIFinancialRequest)
	m.SetField(FieldTrace, "000001")
	frame, err := c.EncodeFrame(m)
	require.NoError(t, err)

	_, err = c.ReadFrame(bytes.NewReader(frame[:len(frame)-1]))
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Op, "read frame body")
}

func TestCodec_ReadFrameHeaderGarbage(t *testing.T) {
	t.Parallel()

	c := NewCodec(DefaultTable())

	_, err := c.ReadFrame(bytes.NewReader([]byte{0xAB, 0xCD}))
	var perr *ProtocolError
	assert.ErrorAs(t, err, &perr)

	_, err = c.ReadFrame(bytes.NewReader([]byte{0x00, 0x05, 1, 2, 3, 4, 5}))
	assert.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "too short")
}

// ============================================================================
// Error taxonomy
// ============================================================================

func TestCodec_FieldErrorsAreMessageScoped(t *testing.T) {
	t.Parallel()

	c := NewCodec(DefaultTable())

	tests := []struct {
		name  string
		field int
		value string
	}{
		{"non-digit in numeric field", FieldAmount, "12AB"},
		{"numeric overflow of fixed length", FieldAmount, "1234567890123"},
		{"non-hex in binary field", FieldMAC, "zz112233445566zz"},
		{"text overflow of fixed length", FieldTerminalID, "TOO-LONG-TERMINAL"},
		{"variable value above maximum", FieldPAN, "12345678901234567890"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewMessage(MTIFinancialRequest)
			m.SetField(FieldTrace, "000001")
			m.SetField(tt.field, tt.value)

			_, err := c.Encode(m)
			var ferr *FieldError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, tt.field, ferr.Field)
		})
	}
}

func TestCodec_DecodePrefixAboveMaximumIsFieldError(t *testing.T) {
	t.Parallel()

	// Hand-build a body whose PAN prefix claims 25 digits against the
	// 19-digit definition. The message is poison, the connection is fine.
	c := NewCodec(DefaultTable())

	var body bytes.Buffer
	mti, err := encodeBCD("0200")
	require.NoError(t, err)
	body.Write(mti)
	body.Write(BitmapFrom(2).ToBytes())
	body.Write([]byte{0x25})
	body.Write(bytes.Repeat([]byte{0x11}, 13))

	_, err = c.Decode(body.Bytes())
	var ferr *FieldError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, 2, ferr.Field)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestCodec_DecodeStructuralDamageIsProtocolError(t *testing.T) {
	t.Parallel()

	c := NewCodec(DefaultTable())
	m := NewMessage(MTIFinancialRequest)
	m.SetField(FieldTrace, "000001")
	body, err := c.Encode(m)
	require.NoError(t, err)

	var perr *ProtocolError

	// Trailing bytes after the last field.
	_, err = c.Decode(append(append([]byte{}, body...), 0x00))
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "trailing bytes")

	// Body ends inside a field the bitmap promises.
	_, err = c.Decode(body[:len(body)-1])
	assert.ErrorAs(t, err, &perr)

	// A set bitmap index with no definition.
	var unknown bytes.Buffer
	mti, err := encodeBCD("0200")
	require.NoError(t, err)
	unknown.Write(mti)
	unknown.Write(BitmapFrom(99).ToBytes())
	_, err = c.Decode(unknown.Bytes())
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "no definition for field 99")
}

func TestCodec_EncodeRejectsUndefinedField(t *testing.T) {
	t.Parallel()

	c := NewCodec(DefaultTable())
	m := NewMessage(MTIFinancialRequest)
	m.SetField(99, "boom")

	_, err := c.Encode(m)
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "no definition for field 99")
}

func TestCodec_EncodeRejectsInvalidMTI(t *testing.T) {
	t.Parallel()

	c := NewCodec(DefaultTable())
	_, err := c.Encode(NewMessage("02"))
	assert.ErrorContains(t, err, "invalid MTI")

	_, err = c.Encode(NewMessage("02X0"))
	assert.ErrorContains(t, err, "invalid MTI")
}

func TestCodec_ErrorKindsAreDistinct(t *testing.T) {
	t.Parallel()

	// Session loops route on the error kind: field trouble drops one
	// message, protocol trouble drops the connection.
	var ferr *FieldError
	var perr *ProtocolError

	err := error(fieldErrorf(4, "bad amount"))
	assert.True(t, errors.As(err, &ferr))
	assert.False(t, errors.As(err, &perr))

	err = protocolErrorf("torn frame")
	assert.True(t, errors.As(err, &perr))
	assert.False(t, errors.As(err, &ferr))
}

// ============================================================================
// Debug rendering
// ============================================================================

func TestCodec_FormatMessageMasksSensitiveFields(t *testing.T) {
	t.Parallel()

	c := NewCodec(DefaultTable())
	m := NewMessage(MTIFinancialRequest)
	m.SetField(FieldPAN, "4000123412341234")
	m.SetField(FieldTrack2, "4000123412341234=29121015432112345678")
	m.SetField(FieldTrace, "000042")

	s := c.FormatMessage(m)
	assert.Contains(t, s, "MTI=0200")
	assert.Contains(t, s, `F011="000042"`)
	assert.Contains(t, s, `F002="****"`)
	assert.Contains(t, s, `F035="****"`)
	assert.NotContains(t, s, "4000123412341234")
}
