package mark

// Bools is a raw bit mark without terminator, used for measuring bit error rates.
type Bools []bool

func NewBools(bits []bool) Bools {
	return Bools(append([]bool(nil), bits...))
}

func (m Bools) GetBit(at int) float64 {
	if m[at] {
		return 1
	}
	return 0
}

func (m Bools) Len() int {
	return len(m)
}
