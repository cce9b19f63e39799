package quality

import (
	"context"
	"errors"
	"fmt"

	watermark "github.com/yyyoichi/watermark_dsss"
	"github.com/yyyoichi/watermark_dsss/mark"
	"github.com/yyyoichi/watermark_dsss/wavio"
)

// Params is the grid swept by Sweep. Every alpha is tried with every
// segment duration.
type Params struct {
	Alphas         []float64
	SegmentSeconds []float64
	Text           string
	Key            string
	Workers        int
	// Quantize, when non-zero, round-trips the marked signal through
	// integer PCM of that bit depth before extraction.
	Quantize int
}

// Result is the outcome of one grid point.
type Result struct {
	Alpha          float64 `yaml:"alpha"`
	SegmentSeconds float64 `yaml:"segment_seconds"`
	SegmentLength  int     `yaml:"segment_length"`
	Bits           int     `yaml:"bits"`
	Capacity       int     `yaml:"capacity"`

	// Skipped is set when the signal cannot hold Text at this segment
	// duration; no other field below is filled in.
	Skipped bool `yaml:"skipped,omitempty"`

	Metrics    `yaml:",inline"`
	BER        float64 `yaml:"ber"`
	Success    bool    `yaml:"success"`
	Extracted  string  `yaml:"extracted"`
	MarginMean float64 `yaml:"margin_mean"`
	MarginStd  float64 `yaml:"margin_std"`
}

// Sweep embeds and extracts Text once per grid point. Spreading sequences
// are shared between grid points with the same segment length.
func Sweep(ctx context.Context, sig watermark.Signal, p Params) ([]Result, error) {
	m, err := mark.NewText(p.Text)
	if err != nil {
		return nil, err
	}
	want := m.Bools()
	batch := watermark.NewBatch(sig)

	results := make([]Result, 0, len(p.Alphas)*len(p.SegmentSeconds))
	for _, secs := range p.SegmentSeconds {
		for _, alpha := range p.Alphas {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := run(ctx, batch, sig, want, p, alpha, secs)
			if err != nil {
				return nil, fmt.Errorf("alpha=%v segment=%vs: %w", alpha, secs, err)
			}
			results = append(results, r)
		}
	}
	return results, nil
}

func run(ctx context.Context, batch *watermark.Batch, sig watermark.Signal, want []bool, p Params, alpha, secs float64) (Result, error) {
	opts := []watermark.Option{
		watermark.WithKey(p.Key),
		watermark.WithAlpha(alpha),
		watermark.WithSegmentSeconds(secs),
	}
	if p.Workers > 0 {
		opts = append(opts, watermark.WithWorkers(p.Workers))
	}
	w, err := watermark.New(opts...)
	if err != nil {
		return Result{}, err
	}
	r := Result{
		Alpha:          alpha,
		SegmentSeconds: secs,
		SegmentLength:  w.SegmentLength(sig.SampleRate),
		Bits:           len(want),
		Capacity:       w.Capacity(sig),
	}

	marked, err := batch.Embed(ctx, p.Text, opts...)
	if errors.Is(err, watermark.ErrInsufficientCapacity) {
		r.Skipped = true
		return r, nil
	}
	if err != nil {
		return Result{}, err
	}
	if p.Quantize > 0 {
		marked = requantize(marked, p.Quantize)
	}
	r.Metrics = Measure(sig.Samples, marked.Samples)

	res, err := batch.ExtractFrom(ctx, marked, opts...)
	if err != nil {
		return Result{}, err
	}
	r.BER = BitErrorRate(want, res.Bits)
	r.Success = res.Found && res.Text == p.Text
	r.Extracted = res.Text
	if !res.Found {
		r.Extracted = res.Partial
	}
	r.MarginMean, r.MarginStd = Margin(res.Correlations, want, res.SegmentLength, alpha)
	return r, nil
}

func requantize(sig watermark.Signal, bitDepth int) watermark.Signal {
	out := make([]float64, len(sig.Samples))
	for i, v := range sig.Samples {
		out[i] = wavio.Normalize(wavio.Quantize(v, bitDepth), bitDepth)
	}
	return watermark.Signal{Samples: out, SampleRate: sig.SampleRate}
}
