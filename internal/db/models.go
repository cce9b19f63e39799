package db

import "time"

type (
	// Run is one sweep over one input
	Run struct {
		ID         string // UUID, filled in by InsertRun when empty
		Source     string
		SampleRate int
		Samples    int
		Text       string
		CreatedAt  time.Time
	}

	// Param is one grid point
	Param struct {
		ID             int64
		Alpha          float64
		SegmentSeconds float64
		Quantize       int // bit depth, 0 for none
		// Unique constraint on (Alpha, SegmentSeconds, Quantize)
	}

	// Result is the outcome of one grid point in one run
	Result struct {
		ID      int64
		RunID   string
		ParamID int64

		SegmentLength int
		Bits          int
		Capacity      int
		Skipped       bool

		// SNR and PSNR may be infinite or NaN
		SNR        float64
		PSNR       float64
		MSE        float64
		BER        float64
		Success    bool
		Extracted  string
		MarginMean float64
		MarginStd  float64

		// Unique constraint on (RunID, ParamID)
	}

	// DetailedResult is a Result joined with its Param
	DetailedResult struct {
		Param
		Result
	}
)
