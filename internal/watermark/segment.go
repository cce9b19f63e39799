package watermark

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/yyyoichi/watermark_dsss/internal/pnseq"
)

const maxSegmentLength = math.MaxInt32

// SegmentLength converts a segment duration to samples, truncating toward zero.
// It returns 0 when the duration does not cover a single sample.
func SegmentLength(segmentSeconds float64, sampleRate int) int {
	v := segmentSeconds * float64(sampleRate)
	if !(v >= 1) {
		return 0
	}
	if v >= maxSegmentLength {
		return maxSegmentLength
	}
	return int(v)
}

// TotalSegments is the number of whole segments in a signal.
func TotalSegments(samples, segLen int) int {
	if segLen < 1 {
		return 0
	}
	return samples / segLen
}

// Enable reports whether markLen segments of segLen samples fit in samples.
func Enable(samples, markLen, segLen int) error {
	if segLen < 1 {
		return fmt.Errorf("segment length %d < 1", segLen)
	}
	if markLen > TotalSegments(samples, segLen) {
		return fmt.Errorf("need %d samples for %d bits of %d samples, have %d",
			int64(markLen)*int64(segLen), markLen, segLen, samples)
	}
	return nil
}

// sequencer yields the spreading sequence for one segment. Without a cache every
// worker regenerates into its own buffer.
type sequencer struct {
	key    string
	segLen int
	cache  *pnseq.Cache
}

func (s sequencer) newBuffer() []float64 {
	if s.cache != nil {
		return nil
	}
	return make([]float64, s.segLen)
}

func (s sequencer) get(buf []float64, at int) []float64 {
	if s.cache != nil {
		return s.cache.Get(s.key, at, s.segLen)
	}
	pnseq.Fill(buf, s.key, at)
	return buf
}

// forEachSegment runs fn for segments [0, n) on up to workers goroutines. Worker w
// handles segments w, w+workers, ... so no two workers touch the same segment.
func forEachSegment(ctx context.Context, n, workers int, seq sequencer, fn func(at int, pn []float64)) error {
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := range workers {
		go func(w int) {
			defer wg.Done()
			buf := seq.newBuffer()
			for at := w; at < n; at += workers {
				if ctx.Err() != nil {
					return
				}
				fn(at, seq.get(buf, at))
			}
		}(w)
	}
	wg.Wait()
	return ctx.Err()
}
