package watermark

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/yyyoichi/watermark_dsss/internal/pnseq"
	"github.com/yyyoichi/watermark_dsss/internal/watermark"
	"github.com/yyyoichi/watermark_dsss/mark"
)

var (
	ErrInsufficientCapacity = errors.New("audio too short for watermark")
	ErrInvalidSegment       = errors.New("invalid segment length")
	ErrInvalidAlpha         = errors.New("alpha must be a positive finite number")
	ErrInvalidWorkers       = errors.New("workers must be at least 1")

	ErrOutOfRangeCharacter = mark.ErrOutOfRangeCharacter
	ErrReservedCharacter   = mark.ErrReservedCharacter
)

// Embed embeds text into a signal with the specified options.
// This is a convenience function that creates a Watermark instance and calls its Embed method.
func Embed(ctx context.Context, sig Signal, text string, opts ...Option) (Signal, error) {
	w, err := New(opts...)
	if err != nil {
		return Signal{}, err
	}
	return w.Embed(ctx, sig, text)
}

// Extract recovers text from a signal with the specified options.
// This is a convenience function that creates a Watermark instance and calls its Extract method.
func Extract(ctx context.Context, sig Signal, opts ...Option) (Result, error) {
	w, err := New(opts...)
	if err != nil {
		return Result{}, err
	}
	return w.Extract(ctx, sig)
}

type Watermark struct {
	key            string
	keySet         bool
	alpha          float64
	segmentSeconds float64
	workers        int
}

// New initializes a watermark codec.
// Key, alpha, segment duration and worker count can be optionally specified.
// For default values, refer to the init function.
func New(opts ...Option) (*Watermark, error) {
	w := new(Watermark)
	if err := w.init(opts...); err != nil {
		return nil, err
	}
	return w, nil
}

// Embed embeds text followed by a terminator byte.
//
// Process:
//  1. Encodes each character as 8 bits, most significant first, and appends 8 zero bits.
//  2. Splits the signal into segments of SegmentLength samples.
//  3. Adds +alpha or -alpha times the segment's key-derived ±1 sequence, by bit value.
//
// The input signal is not modified. Returns ErrInsufficientCapacity, before touching any
// sample, if the signal cannot hold every bit, and ErrOutOfRangeCharacter if a character
// does not fit in one byte.
func (w *Watermark) Embed(ctx context.Context, sig Signal, text string) (Signal, error) {
	m, err := mark.NewText(text)
	if err != nil {
		return Signal{}, err
	}
	return w.embed(ctx, sig, m, nil)
}

// EmbedMark embeds an arbitrary bit sequence without terminator.
func (w *Watermark) EmbedMark(ctx context.Context, sig Signal, m EmbedMark) (Signal, error) {
	return w.embed(ctx, sig, m, nil)
}

// Extract recovers a watermark.
//
// Process:
//  1. Splits the signal into whole segments of SegmentLength samples.
//  2. Correlates each segment with its key-derived ±1 sequence.
//  3. Reads a 1 bit for a positive correlation and a 0 bit otherwise.
//  4. Decodes bytes until the terminator.
//
// A signal without a recoverable terminator, including one shorter than a single
// segment, yields a Result with Found unset rather than an error.
func (w *Watermark) Extract(ctx context.Context, sig Signal) (Result, error) {
	return w.extract(ctx, sig, nil)
}

// SegmentLength returns the number of samples carrying one bit at the given rate.
func (w *Watermark) SegmentLength(sampleRate int) int {
	return watermark.SegmentLength(w.segmentSeconds, sampleRate)
}

// Capacity returns how many characters fit in sig, or -1 when not even the
// terminator fits.
func (w *Watermark) Capacity(sig Signal) int {
	segments := watermark.TotalSegments(len(sig.Samples), w.SegmentLength(sig.SampleRate))
	return segments/mark.BitsPerChar - 1
}

func (w *Watermark) embed(ctx context.Context, sig Signal, m EmbedMark, cache *pnseq.Cache) (Signal, error) {
	segLen, err := w.segmentLength(sig.SampleRate)
	if err != nil {
		return Signal{}, err
	}
	if err := watermark.Enable(len(sig.Samples), m.Len(), segLen); err != nil {
		return Signal{}, fmt.Errorf("%w: %w", ErrInsufficientCapacity, err)
	}
	samples, err := watermark.Embed(ctx, sig.Samples, m, segLen, w.key, w.alpha, w.workers, cache)
	if err != nil {
		return Signal{}, err
	}
	return Signal{Samples: samples, SampleRate: sig.SampleRate}, nil
}

func (w *Watermark) extract(ctx context.Context, sig Signal, cache *pnseq.Cache) (Result, error) {
	segLen, err := w.segmentLength(sig.SampleRate)
	if err != nil {
		return Result{}, err
	}
	bits, corr, err := watermark.Extract(ctx, sig.Samples, segLen, w.key, w.workers, cache)
	if err != nil {
		return Result{}, err
	}
	r := Result{
		Bits:          bits,
		Correlations:  corr,
		SegmentLength: segLen,
	}
	if d := mark.Decode(bits); d.Terminated {
		r.Text, r.Found = d.Text, true
	} else {
		r.Partial = d.Text
	}
	return r, nil
}

func (w *Watermark) segmentLength(sampleRate int) (int, error) {
	segLen := w.SegmentLength(sampleRate)
	if segLen < 1 {
		return 0, fmt.Errorf("%w: %v s at %d Hz is shorter than one sample", ErrInvalidSegment, w.segmentSeconds, sampleRate)
	}
	return segLen, nil
}

func (w *Watermark) init(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return err
		}
	}
	if !w.keySet {
		w.key = DefaultKey
	}
	if w.alpha == 0 {
		w.alpha = DefaultAlpha
	}
	if w.segmentSeconds == 0 {
		w.segmentSeconds = DefaultSegmentSeconds
	}
	if w.workers == 0 {
		w.workers = runtime.NumCPU()
	}
	return nil
}

// Batch enables efficient multiple watermark operations on a single signal
// by caching the spreading sequences between calls.
type Batch struct {
	original Signal
	cache    *pnseq.Cache
}

// NewBatch creates a new Batch instance for the given signal.
func NewBatch(sig Signal) *Batch {
	return &Batch{
		original: sig,
		cache:    pnseq.NewCache(),
	}
}

// Embed embeds text into the cached signal with specified options.
func (b *Batch) Embed(ctx context.Context, text string, opts ...Option) (Signal, error) {
	w, err := New(opts...)
	if err != nil {
		return Signal{}, err
	}
	m, err := mark.NewText(text)
	if err != nil {
		return Signal{}, err
	}
	return w.embed(ctx, b.original, m, b.cache)
}

// Extract recovers a watermark from the cached signal with specified options.
func (b *Batch) Extract(ctx context.Context, opts ...Option) (Result, error) {
	w, err := New(opts...)
	if err != nil {
		return Result{}, err
	}
	return w.extract(ctx, b.original, b.cache)
}

// ExtractFrom recovers a watermark from sig, reusing the sequences cached for the
// batch signal. sig should share the batch signal's sample rate.
func (b *Batch) ExtractFrom(ctx context.Context, sig Signal, opts ...Option) (Result, error) {
	w, err := New(opts...)
	if err != nil {
		return Result{}, err
	}
	return w.extract(ctx, sig, b.cache)
}
