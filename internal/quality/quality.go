// Package quality measures how audible and how detectable a watermark is.
package quality

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics compares a marked signal with its original.
type Metrics struct {
	// SNR is the original's power over the watermark's power, in dB.
	SNR float64 `yaml:"snr_db"`
	// PSNR uses full scale (1.0) as the peak, in dB.
	PSNR float64 `yaml:"psnr_db"`
	MSE  float64 `yaml:"mse"`
}

// Measure compares the first min(len(orig), len(marked)) samples.
// SNR and PSNR are +Inf when the signals are identical.
func Measure(orig, marked []float64) Metrics {
	n := min(len(orig), len(marked))
	if n == 0 {
		return Metrics{}
	}
	diff := make([]float64, n)
	floats.SubTo(diff, marked[:n], orig[:n])

	noise := floats.Dot(diff, diff)
	power := floats.Dot(orig[:n], orig[:n])
	mse := noise / float64(n)
	return Metrics{
		SNR:  10 * math.Log10(power/noise),
		PSNR: 10 * math.Log10(1/mse),
		MSE:  mse,
	}
}

// BitErrorRate is the fraction of want that got does not reproduce.
// Bits missing from got count as errors.
func BitErrorRate(want, got []bool) float64 {
	if len(want) == 0 {
		return 0
	}
	var errs int
	for i, b := range want {
		if i >= len(got) || got[i] != b {
			errs++
		}
	}
	return float64(errs) / float64(len(want))
}

// Margin reports the mean and standard deviation of each bit's correlation,
// signed by the embedded bit and scaled by segLen*alpha. A clean embed in
// silence scores exactly 1; values at or below 0 are bit errors.
func Margin(correlations []float64, bits []bool, segLen int, alpha float64) (mean, std float64) {
	n := min(len(correlations), len(bits))
	if n == 0 || segLen < 1 || alpha <= 0 {
		return 0, 0
	}
	scale := float64(segLen) * alpha
	v := make([]float64, n)
	for i := range v {
		v[i] = correlations[i] / scale
		if !bits[i] {
			v[i] = -v[i]
		}
	}
	if n == 1 {
		return v[0], 0
	}
	return stat.MeanStdDev(v, nil)
}
