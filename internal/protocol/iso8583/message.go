package iso8583

import (
	"fmt"
	"sort"
	"strings"
)

// Message is a decoded ISO 8583 message: a 4-digit MTI plus a sparse map
// from field index to value. Values are strings; Binary-encoded fields carry
// upper-case hex. Messages are value-like: decoders produce them, callers
// consume them, nothing mutates them concurrently.
//
// The bitmap is not stored. It derives from the present fields at encode
// time, so the field set and the bitmap can never disagree.
//
// Field indices are not validated here; the codec rejects indices without a
// definition when the message is encoded.
type Message struct {
	mti    string
	fields map[int]string
}

// NewMessage builds an empty message with the given MTI.
func NewMessage(mti string) *Message {
	return &Message{mti: mti, fields: make(map[int]string)}
}

// MTI returns the message type indicator.
func (m *Message) MTI() string { return m.mti }

// SetMTI replaces the message type indicator.
func (m *Message) SetMTI(mti string) { m.mti = mti }

// Field returns the value of field n and whether it is present.
func (m *Message) Field(n int) (string, bool) {
	v, ok := m.fields[n]
	return v, ok
}

// FieldOr returns the value of field n, or def when absent.
func (m *Message) FieldOr(n int, def string) string {
	if v, ok := m.fields[n]; ok {
		return v
	}
	return def
}

// Has reports whether field n is present.
func (m *Message) Has(n int) bool {
	_, ok := m.fields[n]
	return ok
}

// SetField stores a value for field n, replacing any previous value.
func (m *Message) SetField(n int, value string) {
	if m.fields == nil {
		m.fields = make(map[int]string)
	}
	m.fields[n] = value
}

// ClearField removes field n.
func (m *Message) ClearField(n int) {
	delete(m.fields, n)
}

// Fields returns the present field indices in ascending order.
func (m *Message) Fields() []int {
	out := make([]int, 0, len(m.fields))
	for n := range m.fields {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Len returns the number of present fields.
func (m *Message) Len() int { return len(m.fields) }

// Bitmap derives the presence bitmap from the current field set.
func (m *Message) Bitmap() Bitmap {
	var b Bitmap
	for n := range m.fields {
		b.Set(n)
	}
	return b
}

// Clone returns an independent copy.
func (m *Message) Clone() *Message {
	c := NewMessage(m.mti)
	for n, v := range m.fields {
		c.fields[n] = v
	}
	return c
}

// EchoFrom copies the listed fields from src when present there and absent
// here. Used by responders to carry request fields into the reply.
func (m *Message) EchoFrom(src *Message, fields ...int) {
	for _, n := range fields {
		if m.Has(n) {
			continue
		}
		if v, ok := src.Field(n); ok {
			m.SetField(n, v)
		}
	}
}

// String renders the MTI and the present field indices without any values,
// so it is always safe to log. Value-level rendering with sensitivity
// masking lives on the codec, which knows the field definitions.
func (m *Message) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "MTI %s fields", m.mti)
	sep := " ["
	for _, n := range m.Fields() {
		fmt.Fprintf(&sb, "%s%d", sep, n)
		sep = " "
	}
	if sep == " [" {
		sb.WriteString(" []")
	} else {
		sb.WriteString("]")
	}
	return sb.String()
}
