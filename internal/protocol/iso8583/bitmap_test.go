package iso8583

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmap_SetClearIsSet(t *testing.T) {
	t.Parallel()

	var b Bitmap
	b.Set(2)
	b.Set(64)
	b.Set(128)

	assert.True(t, b.IsSet(2))
	assert.True(t, b.IsSet(64))
	assert.True(t, b.IsSet(128))
	assert.False(t, b.IsSet(3))

	b.Clear(64)
	assert.False(t, b.IsSet(64))
	assert.Equal(t, []int{2, 128}, b.Fields())
}

func TestBitmap_ReservedAndOutOfRangeIndicesIgnored(t *testing.T) {
	t.Parallel()

	var b Bitmap
	b.Set(1)
	b.Set(0)
	b.Set(129)
	b.Set(-7)

	assert.Empty(t, b.Fields())
	assert.False(t, b.IsSet(1))
	assert.False(t, b.IsSet(129))
}

func TestBitmap_SecondaryOnlyForHighFields(t *testing.T) {
	t.Parallel()

	low := BitmapFrom(2, 3, 11, 39, 64)
	assert.False(t, low.Secondary())
	assert.Len(t, low.ToBytes(), 8)

	high := BitmapFrom(2, 70)
	assert.True(t, high.Secondary())
	assert.Len(t, high.ToBytes(), 16)
}

func TestBitmap_SerializationLayout(t *testing.T) {
	t.Parallel()

	// Field 2 is bit 2 of the first byte: 0100 0000.
	raw := BitmapFrom(2).ToBytes()
	require.Len(t, raw, 8)
	assert.Equal(t, byte(0x40), raw[0])

	// A secondary field forces 16 bytes and announces itself on bit 1.
	raw = BitmapFrom(2, 65).ToBytes()
	require.Len(t, raw, 16)
	assert.Equal(t, byte(0xC0), raw[0], "bit 1 flags the secondary half, bit 2 is field 2")
	assert.Equal(t, byte(0x80), raw[8], "field 65 is bit 1 of the second half")
}

func TestBitmapFromBytes_RoundTrip(t *testing.T) {
	t.Parallel()

	orig := BitmapFrom(2, 3, 4, 7, 11, 39, 70, 128)
	raw := orig.ToBytes()

	parsed, consumed, err := BitmapFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, 16, consumed)
	assert.Equal(t, orig.Fields(), parsed.Fields())

	// The presence flag is metadata: parsing strips it, so the parsed
	// bitmap equals one built directly from the same fields.
	assert.Equal(t, orig, parsed)
}

func TestBitmapFromBytes_PrimaryOnly(t *testing.T) {
	t.Parallel()

	raw := BitmapFrom(2, 39).ToBytes()
	extra := append(append([]byte{}, raw...), 0xDE, 0xAD)

	parsed, consumed, err := BitmapFromBytes(extra)
	require.NoError(t, err)
	assert.Equal(t, 8, consumed, "trailing bytes belong to the fields, not the bitmap")
	assert.Equal(t, []int{2, 39}, parsed.Fields())
}

func TestBitmapFromBytes_Truncated(t *testing.T) {
	t.Parallel()

	_, _, err := BitmapFromBytes([]byte{0x40, 0x00})
	require.Error(t, err)
	assert.ErrorContains(t, err, "need 8 bytes")

	// Secondary announced but missing.
	short := make([]byte, 8)
	short[0] = 0x80
	_, _, err = BitmapFromBytes(short)
	require.Error(t, err)
	assert.ErrorContains(t, err, "need 16 bytes")
}
