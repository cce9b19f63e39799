package bitconv

// BytesToBools expands b into bits, most significant bit first.
func BytesToBools(b []byte) []bool {
	bits := make([]bool, 0, len(b)*8)
	for _, bb := range b {
		for i := 7; i >= 0; i-- {
			bits = append(bits, ((bb>>uint(i))&1) == 1)
		}
	}
	return bits
}

// BoolsToBytes packs bits into bytes, most significant bit first.
// Only complete bytes are returned; rest is the number of trailing bits that did
// not fill a byte and were dropped.
func BoolsToBytes(bits []bool) (out []byte, rest int) {
	n := len(bits) / 8
	out = make([]byte, n)
	for i := range out {
		var v byte
		for j := 0; j < 8; j++ {
			if bits[i*8+j] {
				v |= 1 << uint(7-j)
			}
		}
		out[i] = v
	}
	return out, len(bits) % 8
}

// BoolsToSymbols renders bits as a '0'/'1' string.
func BoolsToSymbols(bits []bool) string {
	s := make([]byte, len(bits))
	for i, b := range bits {
		if b {
			s[i] = '1'
		} else {
			s[i] = '0'
		}
	}
	return string(s)
}

// SymbolsToBools parses a '0'/'1' string. Any symbol other than '1' reads as false.
func SymbolsToBools(s string) []bool {
	bits := make([]bool, len(s))
	for i := 0; i < len(s); i++ {
		bits[i] = s[i] == '1'
	}
	return bits
}
