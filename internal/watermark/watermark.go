package watermark

import (
	"context"

	"github.com/yyyoichi/watermark_dsss/internal/pnseq"
	"gonum.org/v1/gonum/floats"
)

// Embed returns a copy of src with mark spread over its first mark.Len() segments.
// Segment at carries alpha*PRN(key, at) for a 1 bit and -alpha*PRN(key, at) for a 0 bit.
// Samples after the last used segment are copied unchanged.
// The caller must have checked capacity with Enable.
func Embed(ctx context.Context, src []float64, mark EmbedMark, segLen int, key string, alpha float64, workers int, cache *pnseq.Cache) ([]float64, error) {
	dst := make([]float64, len(src))
	copy(dst, src)

	seq := sequencer{key: key, segLen: segLen, cache: cache}
	err := forEachSegment(ctx, mark.Len(), workers, seq, func(at int, pn []float64) {
		scale := -alpha
		if mark.GetBit(at) > 0 {
			scale = alpha
		}
		floats.AddScaled(dst[at*segLen:(at+1)*segLen:(at+1)*segLen], scale, pn)
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// Correlate returns, for every whole segment of src, the inner product of the segment
// with its spreading sequence.
func Correlate(ctx context.Context, src []float64, segLen int, key string, workers int, cache *pnseq.Cache) ([]float64, error) {
	n := TotalSegments(len(src), segLen)
	corr := make([]float64, n)

	seq := sequencer{key: key, segLen: segLen, cache: cache}
	err := forEachSegment(ctx, n, workers, seq, func(at int, pn []float64) {
		corr[at] = floats.Dot(src[at*segLen:(at+1)*segLen], pn)
	})
	if err != nil {
		return nil, err
	}
	return corr, nil
}

// Extract correlates every segment and reads a 1 bit for a strictly positive
// correlation, 0 otherwise.
func Extract(ctx context.Context, src []float64, segLen int, key string, workers int, cache *pnseq.Cache) ([]bool, []float64, error) {
	corr, err := Correlate(ctx, src, segLen, key, workers, cache)
	if err != nil {
		return nil, nil, err
	}
	return Bits(corr), corr, nil
}

// Bits applies the sign decision to correlations.
func Bits(corr []float64) []bool {
	bits := make([]bool, len(corr))
	for i, c := range corr {
		bits[i] = c > 0
	}
	return bits
}
