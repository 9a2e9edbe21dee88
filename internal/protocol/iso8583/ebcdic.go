package iso8583

// EBCDIC translation per code page 037, covering the printable set ISO 8583
// text fields use. Bytes outside the mapped set translate to the substitution
// character on both sides.

const ebcdicSub = 0x6f // EBCDIC '?'
const asciiSub = '?'

var (
	ebcdicFromASCII [256]byte
	asciiFromEBCDIC [256]byte
)

func init() {
	for i := range ebcdicFromASCII {
		ebcdicFromASCII[i] = ebcdicSub
		asciiFromEBCDIC[i] = asciiSub
	}

	pair := func(a, e byte) {
		ebcdicFromASCII[a] = e
		asciiFromEBCDIC[e] = a
	}

	pair(0x00, 0x00)
	pair(' ', 0x40)
	pair('.', 0x4b)
	pair('<', 0x4c)
	pair('(', 0x4d)
	pair('+', 0x4e)
	pair('|', 0x4f)
	pair('&', 0x50)
	pair('!', 0x5a)
	pair('$', 0x5b)
	pair('*', 0x5c)
	pair(')', 0x5d)
	pair(';', 0x5e)
	pair('-', 0x60)
	pair('/', 0x61)
	pair(',', 0x6b)
	pair('%', 0x6c)
	pair('_', 0x6d)
	pair('>', 0x6e)
	pair('?', 0x6f)
	pair('`', 0x79)
	pair(':', 0x7a)
	pair('#', 0x7b)
	pair('@', 0x7c)
	pair('\'', 0x7d)
	pair('=', 0x7e)
	pair('"', 0x7f)
	pair('~', 0xa1)
	pair('^', 0xb0)
	pair('[', 0xba)
	pair(']', 0xbb)
	pair('{', 0xc0)
	pair('}', 0xd0)
	pair('\\', 0xe0)

	for i := byte(0); i < 9; i++ {
		pair('a'+i, 0x81+i)
		pair('A'+i, 0xc1+i)
	}
	for i := byte(0); i < 9; i++ {
		pair('j'+i, 0x91+i)
		pair('J'+i, 0xd1+i)
	}
	for i := byte(0); i < 8; i++ {
		pair('s'+i, 0xa2+i)
		pair('S'+i, 0xe2+i)
	}
	for i := byte(0); i < 10; i++ {
		pair('0'+i, 0xf0+i)
	}
}

func encodeEBCDIC(s string) []byte {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = ebcdicFromASCII[s[i]]
	}
	return out
}

func decodeEBCDIC(data []byte) string {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = asciiFromEBCDIC[b]
	}
	return string(out)
}
