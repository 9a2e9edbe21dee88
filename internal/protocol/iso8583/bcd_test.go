package iso8583

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBCD(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		digits string
		want   []byte
	}{
		{"empty", "", []byte{}},
		{"even", "1234", []byte{0x12, 0x34}},
		{"odd gains pad nibble", "301", []byte{0x03, 0x01}},
		{"single digit", "7", []byte{0x07}},
		{"leading zeros survive", "0042", []byte{0x00, 0x42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := encodeBCD(tt.digits)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeBCD_RejectsNonDigits(t *testing.T) {
	t.Parallel()

	_, err := encodeBCD("12a4")
	assert.ErrorContains(t, err, "non-digit")
}

func TestDecodeBCD(t *testing.T) {
	t.Parallel()

	got, err := decodeBCD([]byte{0x12, 0x34})
	require.NoError(t, err)
	assert.Equal(t, "1234", got)

	_, err = decodeBCD([]byte{0x1A})
	assert.ErrorContains(t, err, "invalid BCD byte")
}

func TestDecodeBCDDigits_DropsPadNibble(t *testing.T) {
	t.Parallel()

	// "301" packs into two bytes with a zero pad nibble; asking for 3
	// digits discards the pad but keeps real leading zeros.
	got, err := decodeBCDDigits([]byte{0x03, 0x01}, 3)
	require.NoError(t, err)
	assert.Equal(t, "301", got)

	got, err = decodeBCDDigits([]byte{0x00, 0x42}, 4)
	require.NoError(t, err)
	assert.Equal(t, "0042", got)

	_, err = decodeBCDDigits([]byte{0x12}, 5)
	assert.ErrorContains(t, err, "want 5 BCD digits")
}

func TestBCDUintRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		value  int
		digits int
		want   []byte
	}{
		{"frame length", 123, 4, []byte{0x01, 0x23}},
		{"llvar prefix", 16, 2, []byte{0x16}},
		{"lllvar prefix", 6, 3, []byte{0x00, 0x06}},
		{"zero", 0, 4, []byte{0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw, err := encodeBCDUint(tt.value, tt.digits)
			require.NoError(t, err)
			assert.Equal(t, tt.want, raw)

			back, err := decodeBCDUint(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.value, back)
		})
	}
}

func TestEncodeBCDUint_Bounds(t *testing.T) {
	t.Parallel()

	_, err := encodeBCDUint(-1, 4)
	assert.ErrorContains(t, err, "negative")

	_, err = encodeBCDUint(12345, 4)
	assert.ErrorContains(t, err, "does not fit")
}

func TestBCDByteLen(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, bcdByteLen(0))
	assert.Equal(t, 1, bcdByteLen(1))
	assert.Equal(t, 1, bcdByteLen(2))
	assert.Equal(t, 2, bcdByteLen(3))
	assert.Equal(t, 10, bcdByteLen(19))
}
