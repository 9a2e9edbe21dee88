package iso8583

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
)

// maxFrameBody is the largest body the 4-digit BCD length prefix can carry.
const maxFrameBody = 9999

// frameHeaderLen is the size of the BCD message-length indicator.
const frameHeaderLen = 2

// Codec encodes and decodes complete ISO 8583 messages against one field
// definition table. It holds no mutable state, so a single Codec is safe for
// concurrent use across connections.
//
// Frame layout:
//
//	[length: 2 bytes BCD, body size in bytes]
//	[MTI:    2 bytes BCD, 4 digits]
//	[bitmap: 8 or 16 bytes]
//	[fields in ascending index order]
type Codec struct {
	table *FieldTable
}

// NewCodec builds a codec over an explicit field table. Use DefaultTable()
// for the built-in FISC layout.
func NewCodec(table *FieldTable) *Codec {
	return &Codec{table: table}
}

// Table returns the field table the codec encodes against.
func (c *Codec) Table() *FieldTable { return c.table }

// ============================================================================
// Message level
// ============================================================================

// Encode serializes the message body: MTI, bitmap, then every present field
// in ascending order. Encode is pure; the message is not modified.
func (c *Codec) Encode(m *Message) ([]byte, error) {
	if !ValidMTI(m.MTI()) {
		return nil, protocolErrorf("encode: invalid MTI %q", m.MTI())
	}

	fields := m.Fields()
	for _, n := range fields {
		if n < 2 || n > 128 {
			return nil, protocolErrorf("encode: field index %d outside 2..128", n)
		}
		if _, ok := c.table.Get(n); !ok {
			return nil, protocolErrorf("encode: no definition for field %d in table %q", n, c.table.Provider())
		}
	}

	var buf bytes.Buffer
	mti, err := encodeBCD(m.MTI())
	if err != nil {
		return nil, protocolErrorf("encode: MTI: %v", err)
	}
	buf.Write(mti)
	buf.Write(m.Bitmap().ToBytes())

	for _, n := range fields {
		def, _ := c.table.Get(n)
		v, _ := m.Field(n)
		if err := c.encodeField(&buf, def, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// EncodeFrame serializes the message and prepends the 2-byte BCD length
// prefix carrying the body size in bytes.
func (c *Codec) EncodeFrame(m *Message) ([]byte, error) {
	body, err := c.Encode(m)
	if err != nil {
		return nil, err
	}
	if len(body) > maxFrameBody {
		return nil, protocolErrorf("encode: body %d bytes exceeds frame limit %d", len(body), maxFrameBody)
	}
	header, err := encodeBCDUint(len(body), 4)
	if err != nil {
		return nil, protocolErrorf("encode: frame length: %v", err)
	}
	return append(header, body...), nil
}

// Decode parses a message body. The cursor must land exactly on the body
// end; trailing bytes mean the bitmap and the payload disagree and the
// connection that produced them cannot be trusted further.
func (c *Codec) Decode(body []byte) (*Message, error) {
	cur := &cursor{data: body}

	mtiRaw, err := cur.take(2)
	if err != nil {
		return nil, protocolErrorf("decode: MTI: %v", err)
	}
	mti, err := decodeBCD(mtiRaw)
	if err != nil {
		return nil, protocolErrorf("decode: MTI: %v", err)
	}

	bm, consumed, err := BitmapFromBytes(cur.rest())
	if err != nil {
		return nil, err
	}
	cur.skip(consumed)

	m := NewMessage(mti)
	for _, n := range bm.Fields() {
		def, ok := c.table.Get(n)
		if !ok {
			return nil, protocolErrorf("decode: no definition for field %d in table %q", n, c.table.Provider())
		}
		v, err := c.decodeField(cur, def)
		if err != nil {
			return nil, err
		}
		m.SetField(n, v)
	}

	if cur.off != len(body) {
		return nil, protocolErrorf("decode: %d trailing bytes after last field", len(body)-cur.off)
	}
	return m, nil
}

// ReadFrame reads one length-prefixed message from r. It blocks until a full
// frame arrives, io.EOF on a clean close before any byte, or an error.
func (c *Codec) ReadFrame(r io.Reader) (*Message, error) {
	header := make([]byte, frameHeaderLen)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &ProtocolError{Op: "read frame header", Err: err}
	}
	n, err := decodeBCDUint(header)
	if err != nil {
		return nil, protocolErrorf("frame header: %v", err)
	}
	if n < 2+8 {
		return nil, protocolErrorf("frame body %d bytes too short for MTI and bitmap", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, &ProtocolError{Op: "read frame body", Err: err}
	}
	return c.Decode(body)
}

// WriteFrame encodes the message and writes the complete frame to w.
func (c *Codec) WriteFrame(w io.Writer, m *Message) error {
	frame, err := c.EncodeFrame(m)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return &ProtocolError{Op: "write frame", Err: err}
	}
	return nil
}

// ============================================================================
// Field level
// ============================================================================

func (c *Codec) encodeField(buf *bytes.Buffer, def *FieldDef, value string) error {
	if def.Type == TypeNumeric {
		if err := checkDigits(value); err != nil {
			return &FieldError{Field: def.Number, Op: "encode", Err: err}
		}
	}

	data, units, err := c.encodeData(def, value)
	if err != nil {
		return err
	}

	if def.LengthType == Fixed {
		buf.Write(data)
		return nil
	}

	if units > def.Length {
		return fieldErrorf(def.Number, "encode: value %d units exceeds maximum %d", units, def.Length)
	}
	if units > def.LengthType.prefixCap() {
		return fieldErrorf(def.Number, "encode: %d units exceeds %s capacity %d",
			units, def.LengthType, def.LengthType.prefixCap())
	}
	if err := c.writePrefix(buf, def, units); err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// encodeData renders the value bytes. For fixed layouts it pads first:
// non-BCD data pads with PadChar on the configured side; BCD data left-pads
// '0' to the exact digit count so leading zeros survive the round trip.
// It returns the wire bytes and the value size in definition units.
func (c *Codec) encodeData(def *FieldDef, value string) ([]byte, int, error) {
	switch def.DataEncoding {
	case BCD:
		digits := value
		if err := checkDigits(digits); err != nil {
			return nil, 0, &FieldError{Field: def.Number, Op: "encode", Err: err}
		}
		if def.LengthType == Fixed {
			if len(digits) > def.Length {
				return nil, 0, fieldErrorf(def.Number, "encode: %d digits exceeds fixed length %d", len(digits), def.Length)
			}
			digits = strings.Repeat("0", def.Length-len(digits)) + digits
		}
		data, err := encodeBCD(digits)
		if err != nil {
			return nil, 0, &FieldError{Field: def.Number, Op: "encode", Err: err}
		}
		return data, len(digits), nil

	case Binary:
		raw, err := hex.DecodeString(value)
		if err != nil {
			return nil, 0, fieldErrorf(def.Number, "encode: value is not hex: %v", err)
		}
		if def.LengthType == Fixed && len(raw) != def.Length {
			return nil, 0, fieldErrorf(def.Number, "encode: %d bytes, fixed length wants %d", len(raw), def.Length)
		}
		return raw, len(raw), nil

	case ASCII, EBCDIC:
		chars := value
		if def.LengthType == Fixed {
			if len(chars) > def.Length {
				return nil, 0, fieldErrorf(def.Number, "encode: %d chars exceeds fixed length %d", len(chars), def.Length)
			}
			chars = padTo(chars, def.Length, def.PadChar, def.LeftPad)
		}
		if def.DataEncoding == EBCDIC {
			return encodeEBCDIC(chars), len(chars), nil
		}
		return []byte(chars), len(chars), nil

	default:
		return nil, 0, fieldErrorf(def.Number, "encode: unsupported encoding %s", def.DataEncoding)
	}
}

// writePrefix emits the variable-length prefix. The prefix counts value
// units (digits for BCD, characters for text, bytes for binary), never wire
// bytes, so a BCD pad nibble is recoverable on decode.
func (c *Codec) writePrefix(buf *bytes.Buffer, def *FieldDef, units int) error {
	digits := def.LengthType.prefixDigits()
	switch def.LengthEncoding {
	case BCD:
		p, err := encodeBCDUint(units, digits)
		if err != nil {
			return fieldErrorf(def.Number, "encode: length prefix: %v", err)
		}
		buf.Write(p)
	case ASCII:
		fmt.Fprintf(buf, "%0*d", digits, units)
	default:
		return fieldErrorf(def.Number, "encode: length encoding %s not allowed", def.LengthEncoding)
	}
	return nil
}

func (c *Codec) decodeField(cur *cursor, def *FieldDef) (string, error) {
	units := def.Length

	if def.LengthType != Fixed {
		n, err := c.readPrefix(cur, def)
		if err != nil {
			return "", err
		}
		if n > def.Length {
			return "", fieldErrorf(def.Number, "decode: length prefix %d exceeds maximum %d", n, def.Length)
		}
		units = n
	}

	data, err := cur.take(def.dataByteLen(units))
	if err != nil {
		return "", protocolErrorf("decode: field %d: %v", def.Number, err)
	}

	switch def.DataEncoding {
	case BCD:
		// Drop the pad nibble of odd-length values, keep leading zeros.
		v, err := decodeBCDDigits(data, units)
		if err != nil {
			return "", &FieldError{Field: def.Number, Op: "decode", Err: err}
		}
		return v, nil

	case Binary:
		return strings.ToUpper(hex.EncodeToString(data)), nil

	case EBCDIC:
		return trimPad(decodeEBCDIC(data), def), nil

	default:
		return trimPad(string(data), def), nil
	}
}

func (c *Codec) readPrefix(cur *cursor, def *FieldDef) (int, error) {
	digits := def.LengthType.prefixDigits()
	switch def.LengthEncoding {
	case BCD:
		raw, err := cur.take(bcdByteLen(digits))
		if err != nil {
			return 0, protocolErrorf("decode: field %d length prefix: %v", def.Number, err)
		}
		n, err := decodeBCDUint(raw)
		if err != nil {
			return 0, &FieldError{Field: def.Number, Op: "decode length prefix", Err: err}
		}
		return n, nil
	case ASCII:
		raw, err := cur.take(digits)
		if err != nil {
			return 0, protocolErrorf("decode: field %d length prefix: %v", def.Number, err)
		}
		if err := checkDigits(string(raw)); err != nil {
			return 0, &FieldError{Field: def.Number, Op: "decode length prefix", Err: err}
		}
		n := 0
		for _, ch := range raw {
			n = n*10 + int(ch-'0')
		}
		return n, nil
	default:
		return 0, fieldErrorf(def.Number, "decode: length encoding %s not allowed", def.LengthEncoding)
	}
}

// trimPad removes fixed-layout padding from non-BCD data. Variable layouts
// carry the value verbatim and are returned untouched.
func trimPad(s string, def *FieldDef) string {
	if def.LengthType != Fixed {
		return s
	}
	if def.LeftPad {
		return strings.TrimLeft(s, string(def.PadChar))
	}
	return strings.TrimRight(s, string(def.PadChar))
}

func padTo(s string, length int, pad byte, left bool) string {
	if len(s) >= length {
		return s
	}
	fill := strings.Repeat(string(pad), length-len(s))
	if left {
		return fill + s
	}
	return s + fill
}

// ============================================================================
// Debug rendering
// ============================================================================

// FormatMessage renders a message for logs and diagnostics. Values of fields
// marked sensitive in the table are replaced by a constant mask, so the
// output is safe at any log level.
func (c *Codec) FormatMessage(m *Message) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "MTI=%s", m.MTI())
	fields := m.Fields()
	sort.Ints(fields)
	for _, n := range fields {
		v, _ := m.Field(n)
		if def, ok := c.table.Get(n); ok && def.Sensitive {
			v = "****"
		}
		fmt.Fprintf(&sb, " F%03d=%q", n, v)
	}
	return sb.String()
}

// cursor walks a byte slice during decode.
type cursor struct {
	data []byte
	off  int
}

func (c *cursor) take(n int) ([]byte, error) {
	if c.off+n > len(c.data) {
		return nil, fmt.Errorf("need %d bytes at offset %d, body has %d", n, c.off, len(c.data))
	}
	out := c.data[c.off : c.off+n]
	c.off += n
	return out, nil
}

func (c *cursor) skip(n int) { c.off += n }

func (c *cursor) rest() []byte { return c.data[c.off:] }
