package iso8583

// Bitmap is the set of data fields present in a message, indices 2..128.
// Index 1 is the secondary-bitmap presence flag; it is derived during
// serialization and never stored, so two bitmaps with the same data fields
// compare equal regardless of how they were produced.
//
// Serialization is big-endian: bit k, 1-indexed from the leftmost bit of the
// first byte, corresponds to field k.
type Bitmap struct {
	bits [2]uint64
}

// BitmapFrom builds a bitmap from a list of field indices. Indices outside
// 2..128 are ignored.
func BitmapFrom(fields ...int) Bitmap {
	var b Bitmap
	for _, n := range fields {
		b.Set(n)
	}
	return b
}

// Set marks field n present. Indices outside 2..128 are ignored.
func (b *Bitmap) Set(n int) {
	if n < 2 || n > 128 {
		return
	}
	i := n - 1
	b.bits[i/64] |= 1 << (63 - uint(i%64))
}

// Clear marks field n absent.
func (b *Bitmap) Clear(n int) {
	if n < 2 || n > 128 {
		return
	}
	i := n - 1
	b.bits[i/64] &^= 1 << (63 - uint(i%64))
}

// IsSet reports whether field n is present.
func (b Bitmap) IsSet(n int) bool {
	if n < 2 || n > 128 {
		return false
	}
	i := n - 1
	return b.bits[i/64]&(1<<(63-uint(i%64))) != 0
}

// Secondary reports whether any field above 64 is present, which forces the
// 16-byte serialization.
func (b Bitmap) Secondary() bool {
	return b.bits[1] != 0
}

// Fields returns the present indices in ascending order, excluding the
// reserved index 1.
func (b Bitmap) Fields() []int {
	out := make([]int, 0, 16)
	for n := 2; n <= 128; n++ {
		if b.IsSet(n) {
			out = append(out, n)
		}
	}
	return out
}

// ToBytes serializes the bitmap: 8 bytes when no field above 64 is present,
// otherwise 16 bytes with bit 1 set to announce the secondary half.
func (b Bitmap) ToBytes() []byte {
	primary := b.bits[0]
	size := 8
	if b.Secondary() {
		primary |= 1 << 63
		size = 16
	}
	out := make([]byte, size)
	putUint64BE(out[0:8], primary)
	if size == 16 {
		putUint64BE(out[8:16], b.bits[1])
	}
	return out
}

// BitmapFromBytes parses a serialized bitmap from the start of data and
// returns it together with the number of bytes consumed (8 or 16).
func BitmapFromBytes(data []byte) (Bitmap, int, error) {
	if len(data) < 8 {
		return Bitmap{}, 0, protocolErrorf("bitmap: need 8 bytes, have %d", len(data))
	}
	var b Bitmap
	b.bits[0] = uint64BE(data[0:8])
	consumed := 8
	if b.bits[0]&(1<<63) != 0 {
		if len(data) < 16 {
			return Bitmap{}, 0, protocolErrorf("bitmap: secondary flagged, need 16 bytes, have %d", len(data))
		}
		b.bits[1] = uint64BE(data[8:16])
		consumed = 16
	}
	// Bit 1 is presence metadata, not a field.
	b.bits[0] &^= 1 << 63
	return b, consumed, nil
}

func putUint64BE(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(v >> (56 - 8*uint(i)))
	}
}

func uint64BE(src []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(src[i])
	}
	return v
}
