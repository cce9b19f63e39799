// Package wavio reads and writes integer PCM WAV files and converts one of
// their channels to and from a normalized watermark.Signal.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	watermark "github.com/yyyoichi/watermark_dsss"
)

// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
const wavFormatPCM = 1

var (
	ErrUnsupportedFormat = errors.New("unsupported wav format")
	ErrInvalidChannel    = errors.New("invalid channel")
	ErrFrameMismatch     = errors.New("signal length does not match frame count")
)

// Audio is a decoded WAV file. Data holds the raw integer samples of every
// channel interleaved frame by frame, exactly as stored.
type Audio struct {
	SampleRate  int
	BitDepth    int
	NumChannels int
	Data        []int
}

// Read decodes an integer PCM WAV stream.
func Read(r io.ReadSeeker) (*Audio, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("invalid wav file: %w", err)
		}
		return nil, errors.New("invalid wav file")
	}
	if d.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedFormat, d.WavAudioFormat)
	}
	if !supportedDepth(int(d.BitDepth)) {
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, d.BitDepth)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read pcm data: %w", err)
	}
	a := &Audio{
		SampleRate:  int(d.SampleRate),
		BitDepth:    int(d.BitDepth),
		NumChannels: int(d.NumChans),
		Data:        buf.Data,
	}
	// drop a trailing partial frame
	a.Data = a.Data[:a.Frames()*a.NumChannels]
	return a, nil
}

// ReadFile opens and decodes the WAV file at path.
func ReadFile(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Frames is the number of samples per channel.
func (a *Audio) Frames() int {
	if a.NumChannels < 1 {
		return 0
	}
	return len(a.Data) / a.NumChannels
}

// Signal returns channel ch normalized to [-1, 1].
func (a *Audio) Signal(ch int) (watermark.Signal, error) {
	if err := a.checkChannel(ch); err != nil {
		return watermark.Signal{}, err
	}
	samples := make([]float64, a.Frames())
	for i := range samples {
		samples[i] = Normalize(a.Data[i*a.NumChannels+ch], a.BitDepth)
	}
	return watermark.Signal{Samples: samples, SampleRate: a.SampleRate}, nil
}

// Replace requantizes sig into channel ch. The other channels are left as they are.
func (a *Audio) Replace(ch int, sig watermark.Signal) error {
	if err := a.checkChannel(ch); err != nil {
		return err
	}
	if len(sig.Samples) != a.Frames() {
		return fmt.Errorf("%w: %d samples for %d frames", ErrFrameMismatch, len(sig.Samples), a.Frames())
	}
	for i, v := range sig.Samples {
		a.Data[i*a.NumChannels+ch] = Quantize(v, a.BitDepth)
	}
	return nil
}

// Write encodes the audio as a PCM WAV stream.
func (a *Audio) Write(w io.WriteSeeker) error {
	if !supportedDepth(a.BitDepth) {
		return fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, a.BitDepth)
	}
	e := wav.NewEncoder(w, a.SampleRate, a.BitDepth, a.NumChannels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: a.NumChannels,
			SampleRate:  a.SampleRate,
		},
		Data:           a.Data,
		SourceBitDepth: a.BitDepth,
	}
	if err := e.Write(buf); err != nil {
		return fmt.Errorf("failed to write pcm data: %w", err)
	}
	return e.Close()
}

// WriteFile writes the audio to path, replacing any existing file.
func (a *Audio) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := a.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (a *Audio) checkChannel(ch int) error {
	if ch < 0 || ch >= a.NumChannels {
		return fmt.Errorf("%w: %d of %d", ErrInvalidChannel, ch, a.NumChannels)
	}
	return nil
}

// MaxValue is the largest positive sample value at bitDepth.
func MaxValue(bitDepth int) int {
	return 1<<(bitDepth-1) - 1
}

// Normalize maps a stored sample to a float by dividing by MaxValue.
// 8-bit samples are unsigned with a midpoint of 128.
func Normalize(v, bitDepth int) float64 {
	if bitDepth == 8 {
		v -= 128
	}
	return float64(v) / float64(MaxValue(bitDepth))
}

// Quantize is the inverse of Normalize: it scales by MaxValue, rounds half away
// from zero and saturates to the signed range of bitDepth. NaN becomes silence.
func Quantize(x float64, bitDepth int) int {
	hi := MaxValue(bitDepth)
	var v int
	switch s := math.Round(x * float64(hi)); {
	case math.IsNaN(s):
		v = 0
	case s > float64(hi):
		v = hi
	case s < float64(-hi-1):
		v = -hi - 1
	default:
		v = int(s)
	}
	if bitDepth == 8 {
		v += 128
	}
	return v
}

func supportedDepth(bitDepth int) bool {
	switch bitDepth {
	case 8, 16, 24, 32:
		return true
	}
	return false
}
