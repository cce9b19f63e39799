package watermark

// EmbedMark supplies the bit carried by each segment.
type EmbedMark interface {
	GetBit(int) float64
	BitMark
}

type BitMark interface {
	Len() int
}
