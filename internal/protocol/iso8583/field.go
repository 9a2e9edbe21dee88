package iso8583

import (
	"fmt"
	"strings"
)

// FieldType classifies the alphabet a field value may use. Only NUMERIC is
// enforced character-by-character at encode time; the other types document
// the layout and drive the default padding rule.
type FieldType uint8

const (
	TypeNumeric FieldType = iota
	TypeAlpha
	TypeSpecial
	TypeAlphaNumeric
	TypeAlphaNumericSpecial
	TypeNumericSpecial
	TypeBinary
	TypeTrack2
	TypeExtendedBCD
)

var fieldTypeNames = map[FieldType]string{
	TypeNumeric:             "NUMERIC",
	TypeAlpha:               "ALPHA",
	TypeSpecial:             "SPECIAL",
	TypeAlphaNumeric:        "ALPHA_NUMERIC",
	TypeAlphaNumericSpecial: "ALPHA_NUMERIC_SPECIAL",
	TypeNumericSpecial:      "NUMERIC_SPECIAL",
	TypeBinary:              "BINARY",
	TypeTrack2:              "TRACK2",
	TypeExtendedBCD:         "EXTENDED_BCD",
}

func (t FieldType) String() string {
	if s, ok := fieldTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("FieldType(%d)", uint8(t))
}

// ParseFieldType maps a definition-source token to its FieldType.
func ParseFieldType(s string) (FieldType, error) {
	for t, name := range fieldTypeNames {
		if name == strings.ToUpper(strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown field type %q", s)
}

// numeric reports whether values of this type default to left '0' padding.
func (t FieldType) numeric() bool {
	return t == TypeNumeric || t == TypeExtendedBCD
}

// LengthType selects fixed-length layout or a variable layout with a 2-, 3-
// or 4-digit length prefix.
type LengthType uint8

const (
	Fixed LengthType = iota
	LLVar
	LLLVar
	LLLLVar
)

var lengthTypeNames = map[LengthType]string{
	Fixed:   "FIXED",
	LLVar:   "LLVAR",
	LLLVar:  "LLLVAR",
	LLLLVar: "LLLLVAR",
}

func (t LengthType) String() string {
	if s, ok := lengthTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("LengthType(%d)", uint8(t))
}

// ParseLengthType maps a definition-source token to its LengthType.
func ParseLengthType(s string) (LengthType, error) {
	for t, name := range lengthTypeNames {
		if name == strings.ToUpper(strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown length type %q", s)
}

// prefixDigits returns the decimal digit count of the variable-length prefix,
// or 0 for fixed layout.
func (t LengthType) prefixDigits() int {
	switch t {
	case LLVar:
		return 2
	case LLLVar:
		return 3
	case LLLLVar:
		return 4
	default:
		return 0
	}
}

// prefixCap returns the largest value the prefix can carry.
func (t LengthType) prefixCap() int {
	switch t {
	case LLVar:
		return 99
	case LLLVar:
		return 999
	case LLLLVar:
		return 9999
	default:
		return 0
	}
}

// Encoding selects the on-wire representation of field data or of a
// variable-length prefix. Length prefixes are restricted to ASCII and BCD.
type Encoding uint8

const (
	ASCII Encoding = iota
	BCD
	EBCDIC
	Binary
)

var encodingNames = map[Encoding]string{
	ASCII:  "ASCII",
	BCD:    "BCD",
	EBCDIC: "EBCDIC",
	Binary: "BINARY",
}

func (e Encoding) String() string {
	if s, ok := encodingNames[e]; ok {
		return s
	}
	return fmt.Sprintf("Encoding(%d)", uint8(e))
}

// ParseEncoding maps a definition-source token to its Encoding.
func ParseEncoding(s string) (Encoding, error) {
	for e, name := range encodingNames {
		if name == strings.ToUpper(strings.TrimSpace(s)) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown encoding %q", s)
}

// FieldDef describes the layout of one ISO 8583 data element.
//
// Length counts characters for ASCII/EBCDIC data, digits for BCD data and
// bytes for Binary data; it is the exact size for Fixed layout and the
// maximum for variable layouts. Sensitive marks values that must never reach
// logs or debug output.
type FieldDef struct {
	Number         int
	Name           string
	Description    string
	Type           FieldType
	LengthType     LengthType
	Length         int
	DataEncoding   Encoding
	LengthEncoding Encoding
	Sensitive      bool
	PadChar        byte
	LeftPad        bool
}

// Validate checks the definition for internal consistency. Called by the
// loaders; hand-built definitions should call it too.
func (d *FieldDef) Validate() error {
	if d.Number < 2 || d.Number > 128 {
		return fmt.Errorf("field number %d outside 2..128", d.Number)
	}
	if d.Length <= 0 {
		return fmt.Errorf("field %d: length %d must be positive", d.Number, d.Length)
	}
	if cap := d.LengthType.prefixCap(); cap > 0 && d.Length > cap {
		return fmt.Errorf("field %d: length %d exceeds %s capacity %d",
			d.Number, d.Length, d.LengthType, cap)
	}
	if d.LengthEncoding != ASCII && d.LengthEncoding != BCD {
		return fmt.Errorf("field %d: length encoding %s not allowed (ASCII or BCD)",
			d.Number, d.LengthEncoding)
	}
	if d.DataEncoding == Binary && d.Type != TypeBinary {
		return fmt.Errorf("field %d: BINARY encoding requires BINARY field type", d.Number)
	}
	return nil
}

// applyPaddingDefaults fills PadChar for definitions whose source left it
// blank: numeric types left-pad '0', everything else right-pads ' '.
func (d *FieldDef) applyPaddingDefaults() {
	if d.PadChar != 0 {
		return
	}
	if d.Type.numeric() {
		d.PadChar = '0'
		d.LeftPad = true
	} else {
		d.PadChar = ' '
	}
}

// dataByteLen converts a value size in definition units (chars, digits or
// bytes) to the number of wire bytes it occupies under DataEncoding.
func (d *FieldDef) dataByteLen(n int) int {
	switch d.DataEncoding {
	case BCD:
		return bcdByteLen(n)
	default:
		return n
	}
}

func (d *FieldDef) String() string {
	return fmt.Sprintf("F%d %s %s(%d) %s/%s", d.Number, d.Name,
		d.LengthType, d.Length, d.DataEncoding, d.LengthEncoding)
}
