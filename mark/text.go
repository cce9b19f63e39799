// Package mark converts watermark text to the bit sequence carried by the audio
// segments and back.
//
// Every character is one byte, most significant bit first, and the sequence ends
// with a single all-zero terminator byte. Code points above 255 cannot be carried.
package mark

import (
	"errors"
	"fmt"

	"github.com/yyyoichi/bitstream-go"
	"github.com/yyyoichi/watermark_dsss/internal/bitconv"
)

const (
	// BitsPerChar is the width of one encoded character.
	BitsPerChar = 8
	// Terminator ends every encoded text.
	Terminator byte = 0x00
)

var (
	ErrOutOfRangeCharacter = errors.New("character code point does not fit in 8 bits")
	ErrReservedCharacter   = errors.New("character is reserved as the terminator")
)

// Text is an encoded watermark text ready for embedding.
type Text struct {
	text   string
	size   int
	reader *bitstream.BitReader[uint64]
}

// NewText encodes text followed by the terminator.
// It fails with ErrOutOfRangeCharacter for code points above 255 (including invalid
// UTF-8, which decodes as U+FFFD) and with ErrReservedCharacter for U+0000.
func NewText(text string) (*Text, error) {
	w := bitstream.NewBitWriter[uint64](0, 0)
	pos := 0
	for _, r := range text {
		if r > 0xff {
			return nil, fmt.Errorf("%w: %q (U+%04X) at position %d", ErrOutOfRangeCharacter, r, r, pos)
		}
		if byte(r) == Terminator {
			return nil, fmt.Errorf("%w: U+0000 at position %d", ErrReservedCharacter, pos)
		}
		for _, bit := range bitconv.BytesToBools([]byte{byte(r)}) {
			w.WriteBool(bit)
		}
		pos++
	}
	for range BitsPerChar {
		w.WriteBool(false)
	}
	size := (pos + 1) * BitsPerChar
	reader := bitstream.NewBitReader(w.Data(), 0, 0)
	reader.SetBits(size)
	return &Text{
		text:   text,
		size:   size,
		reader: reader,
	}, nil
}

// GetBit returns 1 or 0 for the bit at the given position.
func (m *Text) GetBit(at int) float64 {
	if bit, _ := m.reader.ReadBitAt(at); bit {
		return 1
	}
	return 0
}

// Len returns the number of bits, terminator included.
func (m *Text) Len() int {
	return m.size
}

// Text returns the source text.
func (m *Text) Text() string {
	return m.text
}

// Bools returns the encoded bits.
func (m *Text) Bools() []bool {
	bits := make([]bool, m.size)
	for i := range bits {
		bits[i] = m.GetBit(i) > 0
	}
	return bits
}

// String returns the encoded bits as '0'/'1' symbols.
func (m *Text) String() string {
	return bitconv.BoolsToSymbols(m.Bools())
}

// TextToBits encodes text into its '0'/'1' symbol form, terminator included.
func TextToBits(text string) (string, error) {
	m, err := NewText(text)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}
