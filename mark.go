package watermark

import (
	"time"

	"github.com/yyyoichi/watermark_dsss/internal/watermark"
)

// EmbedMark is any bit sequence that can be spread over the segments of a signal.
// *mark.Text and mark.Bools implement it.
type EmbedMark = watermark.EmbedMark

// Signal is a mono sequence of samples normalized to [-1, 1].
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the playback length of the signal.
func (s Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Samples)) / float64(s.SampleRate) * float64(time.Second))
}

// NotFoundText is what Result.String reports when no terminator was recovered.
const NotFoundText = "no watermark found"

// Result is the outcome of an extraction.
type Result struct {
	// Text is the recovered watermark. It is only meaningful when Found is true;
	// an empty Text with Found set is an intentionally empty watermark.
	Text string
	// Found reports whether a terminator was recovered before the data ran out.
	Found bool
	// Partial holds the characters read before the data ran out when Found is false.
	Partial string
	// Bits holds one decision per whole segment.
	Bits []bool
	// Correlations holds the inner product of each segment with its sequence.
	Correlations []float64
	// SegmentLength is the number of samples per segment.
	SegmentLength int
}

func (r Result) String() string {
	if r.Found {
		return r.Text
	}
	return NotFoundText
}
