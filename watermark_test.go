package watermark

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/watermark_dsss/mark"
)

func silence(rate int, seconds float64) Signal {
	return Signal{Samples: make([]float64, int(float64(rate)*seconds)), SampleRate: rate}
}

func randomText(rd *rand.Rand, n int) string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 _-!?"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rd.Intn(len(letters))]
	}
	return string(b)
}

func TestNew(t *testing.T) {
	test := []struct {
		name string
		opts []Option
		err  error
	}{
		{"defaults", nil, nil},
		{"all", []Option{WithKey("k"), WithAlpha(0.01), WithSegmentSeconds(0.1), WithWorkers(2)}, nil},
		{"empty key", []Option{WithKey("")}, nil},
		{"zero alpha", []Option{WithAlpha(0)}, ErrInvalidAlpha},
		{"negative alpha", []Option{WithAlpha(-0.1)}, ErrInvalidAlpha},
		{"zero segment", []Option{WithSegmentSeconds(0)}, ErrInvalidSegment},
		{"zero workers", []Option{WithWorkers(0)}, ErrInvalidWorkers},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(tt.opts...)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Nil(t, w)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, w)
		})
	}

	w, err := New()
	require.NoError(t, err)
	assert.Equal(t, DefaultKey, w.key)
	assert.Equal(t, DefaultAlpha, w.alpha)
	assert.Equal(t, DefaultSegmentSeconds, w.segmentSeconds)
	assert.Positive(t, w.workers)

	w, err = New(WithKey(""))
	require.NoError(t, err)
	assert.Equal(t, "", w.key)
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	test := []struct {
		name    string
		rate    int
		text    string
		key     string
		alpha   float64
		seconds float64
	}{
		{"defaults", 8000, "Hi", DefaultKey, DefaultAlpha, DefaultSegmentSeconds},
		{"cd rate", 44100, "watermark", "another key", 0.05, 0.01},
		{"low rate", 1000, "The quick brown fox", "k", 0.5, 0.02},
		{"weak", 16000, "w", "weak", 1e-4, 0.005},
		{"empty", 8000, "", DefaultKey, DefaultAlpha, 0.1},
		{"latin1", 8000, "café ÿ", "é", 0.1, 0.01},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			opts := []Option{WithKey(tt.key), WithAlpha(tt.alpha), WithSegmentSeconds(tt.seconds)}
			w, err := New(opts...)
			require.NoError(t, err)
			segLen := w.SegmentLength(tt.rate)
			need := (len([]rune(tt.text)) + 1) * 8 * segLen
			sig := Signal{Samples: make([]float64, need+segLen/2), SampleRate: tt.rate}

			marked, err := Embed(ctx, sig, tt.text, opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.rate, marked.SampleRate)
			assert.Len(t, marked.Samples, len(sig.Samples))

			res, err := Extract(ctx, marked, opts...)
			require.NoError(t, err)
			assert.True(t, res.Found)
			assert.Equal(t, tt.text, res.Text)
			assert.Equal(t, tt.text, res.String())
			assert.Equal(t, segLen, res.SegmentLength)
			assert.Len(t, res.Bits, need/segLen)
		})
	}
}

func TestRoundTripRandom(t *testing.T) {
	ctx := context.Background()
	rd := rand.New(rand.NewSource(42))
	for range 20 {
		text := randomText(rd, 1+rd.Intn(6))
		key := randomText(rd, rd.Intn(12))
		rate := 1000 + rd.Intn(47000)
		seconds := 0.001 + rd.Float64()*0.01
		alpha := 1e-3 + rd.Float64()
		opts := []Option{WithKey(key), WithAlpha(alpha), WithSegmentSeconds(seconds)}

		w, err := New(opts...)
		require.NoError(t, err)
		segLen := w.SegmentLength(rate)
		if segLen < 1 {
			continue
		}
		sig := Signal{Samples: make([]float64, (len(text)+1)*8*segLen), SampleRate: rate}
		marked, err := w.Embed(ctx, sig, text)
		require.NoError(t, err)
		res, err := w.Extract(ctx, marked)
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, text, res.Text, "key=%q rate=%d seconds=%v alpha=%v", key, rate, seconds, alpha)
	}
}

func TestCapacityScenario(t *testing.T) {
	ctx := context.Background()
	opts := []Option{WithSegmentSeconds(0.1)}

	// 24 bits x 800 samples = 19200 > 16000
	_, err := Embed(ctx, silence(8000, 2), "Hi", opts...)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
	assert.ErrorContains(t, err, "19200")
	assert.ErrorContains(t, err, "16000")

	marked, err := Embed(ctx, silence(8000, 3), "Hi", opts...)
	require.NoError(t, err)
	res, err := Extract(ctx, marked, opts...)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "Hi", res.Text)
}

func TestEmptyWatermark(t *testing.T) {
	ctx := context.Background()
	opts := []Option{WithSegmentSeconds(0.1)}
	sig := silence(8000, 1)

	marked, err := Embed(ctx, sig, "", opts...)
	require.NoError(t, err)
	// The terminator occupies 8 segments of 800 samples.
	for i, v := range marked.Samples {
		if i < 8*800 {
			require.InDelta(t, DefaultAlpha, abs(v), 1e-12)
		} else {
			require.Zero(t, v)
		}
	}

	res, err := Extract(ctx, marked, opts...)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "", res.Text)
	assert.Equal(t, "", res.String())
}

func TestUndersizedSignal(t *testing.T) {
	ctx := context.Background()
	sig := Signal{Samples: make([]float64, 3999), SampleRate: 8000}

	_, err := Embed(ctx, sig, "a")
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
	_, err = Embed(ctx, sig, "")
	assert.ErrorIs(t, err, ErrInsufficientCapacity)

	res, err := Extract(ctx, sig)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Empty(t, res.Bits)
	assert.Equal(t, NotFoundText, res.String())
}

func TestNoTerminator(t *testing.T) {
	ctx := context.Background()
	opts := []Option{WithSegmentSeconds(0.01), WithKey("k")}
	w, err := New(opts...)
	require.NoError(t, err)

	// "AB" without terminator, followed by silence that decodes as a partial chunk.
	bits := []bool{
		false, true, false, false, false, false, false, true,
		false, true, false, false, false, false, true, false,
	}
	sig := Signal{Samples: make([]float64, 100*20), SampleRate: 10000}
	sig, err = w.EmbedMark(ctx, sig, mark.NewBools(bits))
	require.NoError(t, err)

	res, err := w.Extract(ctx, sig)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, "", res.Text)
	assert.Equal(t, "AB", res.Partial)
	assert.Equal(t, NotFoundText, res.String())
}

func TestKeyMismatch(t *testing.T) {
	ctx := context.Background()
	rd := rand.New(rand.NewSource(7))
	matches := 0
	for range 20 {
		text := randomText(rd, 4)
		sig := silence(8000, 0.01*float64((len(text)+1)*8))
		marked, err := Embed(ctx, sig, text, WithKey("secret"), WithSegmentSeconds(0.01))
		require.NoError(t, err)
		res, err := Extract(ctx, marked, WithKey("wrong"), WithSegmentSeconds(0.01))
		require.NoError(t, err)
		if res.Found && res.Text == text {
			matches++
		}
	}
	assert.Zero(t, matches)
}

func TestEmbedErrors(t *testing.T) {
	ctx := context.Background()
	sig := silence(8000, 10)

	_, err := Embed(ctx, sig, "日本")
	assert.ErrorIs(t, err, ErrOutOfRangeCharacter)
	_, err = Embed(ctx, sig, "a\x00")
	assert.ErrorIs(t, err, ErrReservedCharacter)
	_, err = Embed(ctx, Signal{Samples: sig.Samples, SampleRate: 1}, "a", WithSegmentSeconds(0.5))
	assert.ErrorIs(t, err, ErrInvalidSegment)
	_, err = Extract(ctx, Signal{Samples: sig.Samples, SampleRate: 1}, WithSegmentSeconds(0.5))
	assert.ErrorIs(t, err, ErrInvalidSegment)
	_, err = Embed(ctx, sig, "a", WithAlpha(-1))
	assert.ErrorIs(t, err, ErrInvalidAlpha)
}

func TestCapacity(t *testing.T) {
	w, err := New(WithSegmentSeconds(0.1))
	require.NoError(t, err)
	assert.Equal(t, 2, w.Capacity(silence(8000, 3)))
	assert.Equal(t, 0, w.Capacity(silence(8000, 0.8)))
	assert.Equal(t, -1, w.Capacity(silence(8000, 0.7)))
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	sig := silence(8000, 2)
	b := NewBatch(sig)

	for _, tt := range []struct {
		text string
		key  string
	}{
		{"one", "k1"},
		{"two", "k2"},
		{"three", "k1"},
	} {
		opts := []Option{WithKey(tt.key), WithSegmentSeconds(0.01)}
		marked, err := b.Embed(ctx, tt.text, opts...)
		require.NoError(t, err)
		want, err := Embed(ctx, sig, tt.text, opts...)
		require.NoError(t, err)
		assert.Equal(t, want, marked)

		res, err := b.ExtractFrom(ctx, marked, opts...)
		require.NoError(t, err)
		assert.Equal(t, tt.text, res.Text)
	}

	// Silence correlates to exactly zero everywhere, which reads as a terminator.
	res, err := b.Extract(ctx, WithSegmentSeconds(0.01))
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "", res.Text)
	assert.Zero(t, sig.Samples[0], "batch signal must stay unmodified")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
