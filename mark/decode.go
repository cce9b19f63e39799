package mark

import "github.com/yyyoichi/watermark_dsss/internal/bitconv"

// Decoded is the text recovered from a bit sequence.
type Decoded struct {
	// Text holds the characters read before the terminator or the end of data.
	Text string
	// Terminated reports whether a terminator byte was read.
	Terminated bool
}

// Decode reads bits in 8-bit chunks and stops at the first all-zero chunk or at a
// trailing chunk shorter than 8 bits. Each byte maps to the rune with the same
// code point.
func Decode(bits []bool) Decoded {
	data, _ := bitconv.BoolsToBytes(bits)
	runes := make([]rune, 0, len(data))
	for _, b := range data {
		if b == Terminator {
			return Decoded{Text: string(runes), Terminated: true}
		}
		runes = append(runes, rune(b))
	}
	return Decoded{Text: string(runes)}
}

// BitsToText decodes the '0'/'1' symbol form. The flag reports whether a
// terminator was found.
func BitsToText(bits string) (string, bool) {
	d := Decode(bitconv.SymbolsToBools(bits))
	return d.Text, d.Terminated
}
