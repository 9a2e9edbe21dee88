package iso8583

import "fmt"

// ============================================================================
// BCD packing - two decimal digits per byte, high nibble first
// ============================================================================

// bcdByteLen returns the number of bytes needed to BCD-pack n digits.
func bcdByteLen(n int) int { return (n + 1) / 2 }

// encodeBCD packs a digit string two digits per byte, high nibble first.
// An odd number of digits gains a leading zero nibble, so "301" packs to
// [0x03 0x01] exactly like "0301".
func encodeBCD(digits string) ([]byte, error) {
	if err := checkDigits(digits); err != nil {
		return nil, err
	}
	out := make([]byte, bcdByteLen(len(digits)))
	// Odd length shifts every digit one nibble right.
	pos := len(digits) % 2
	for i := 0; i < len(digits); i++ {
		d := digits[i] - '0'
		idx := (i + pos) / 2
		if (i+pos)%2 == 0 {
			out[idx] = d << 4
		} else {
			out[idx] |= d
		}
	}
	return out, nil
}

// decodeBCD unpacks every nibble of data into its decimal digit. The result
// always has an even number of digits; callers that know the original digit
// count use decodeBCDDigits to drop a leading pad nibble.
func decodeBCD(data []byte) (string, error) {
	out := make([]byte, 0, len(data)*2)
	for i, b := range data {
		hi, lo := b>>4, b&0x0f
		if hi > 9 || lo > 9 {
			return "", fmt.Errorf("invalid BCD byte %#02x at offset %d", b, i)
		}
		out = append(out, '0'+hi, '0'+lo)
	}
	return string(out), nil
}

// decodeBCDDigits unpacks data and returns the rightmost n digits, discarding
// the pad nibble that encodeBCD prepends for odd digit counts. Leading zeros
// inside the n digits are preserved.
func decodeBCDDigits(data []byte, n int) (string, error) {
	s, err := decodeBCD(data)
	if err != nil {
		return "", err
	}
	if n > len(s) {
		return "", fmt.Errorf("want %d BCD digits, have %d", n, len(s))
	}
	return s[len(s)-n:], nil
}

// encodeBCDUint packs a non-negative integer into exactly digits decimal
// positions. Used for length prefixes and the frame MLI.
func encodeBCDUint(v, digits int) ([]byte, error) {
	if v < 0 {
		return nil, fmt.Errorf("negative BCD value %d", v)
	}
	s := fmt.Sprintf("%0*d", digits, v)
	if len(s) > digits {
		return nil, fmt.Errorf("value %d does not fit in %d BCD digits", v, digits)
	}
	return encodeBCD(s)
}

// decodeBCDUint unpacks data and interprets all its digits as a decimal
// integer.
func decodeBCDUint(data []byte) (int, error) {
	v := 0
	for i, b := range data {
		hi, lo := int(b>>4), int(b&0x0f)
		if hi > 9 || lo > 9 {
			return 0, fmt.Errorf("invalid BCD byte %#02x at offset %d", b, i)
		}
		v = v*100 + hi*10 + lo
	}
	return v, nil
}

func checkDigits(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("non-digit character %q at position %d", s[i], i)
		}
	}
	return nil
}
