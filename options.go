package watermark

import (
	"fmt"
	"math"
)

const (
	DefaultKey            = "secret"
	DefaultAlpha          = 0.1
	DefaultSegmentSeconds = 0.5
)

type Option func(*Watermark) error

// WithKey sets the shared secret from which the spreading sequences are derived.
// Embedding and extraction must use the same key.
func WithKey(key string) Option {
	return func(w *Watermark) error {
		w.key = key
		w.keySet = true
		return nil
	}
}

// WithAlpha sets the embedding strength, the amplitude of the added sequence relative
// to full scale. Larger values survive quantization and louder programme material
// better but are more audible. Extraction does not depend on alpha.
func WithAlpha(alpha float64) Option {
	return func(w *Watermark) error {
		if !(alpha > 0) || math.IsInf(alpha, 0) {
			return fmt.Errorf("%w: %v", ErrInvalidAlpha, alpha)
		}
		w.alpha = alpha
		return nil
	}
}

// WithSegmentSeconds sets the duration carrying one bit. The sample count per segment
// is the duration times the sample rate, truncated; it must match between embedding
// and extraction.
func WithSegmentSeconds(seconds float64) Option {
	return func(w *Watermark) error {
		if !(seconds > 0) || math.IsInf(seconds, 0) {
			return fmt.Errorf("%w: %v seconds", ErrInvalidSegment, seconds)
		}
		w.segmentSeconds = seconds
		return nil
	}
}

// WithWorkers bounds the number of goroutines processing segments.
func WithWorkers(n int) Option {
	return func(w *Watermark) error {
		if n < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidWorkers, n)
		}
		w.workers = n
		return nil
	}
}
