package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/yyyoichi/watermark_dsss/config"
	"github.com/yyyoichi/watermark_dsss/internal/db"
	"github.com/yyyoichi/watermark_dsss/internal/quality"
	"github.com/yyyoichi/watermark_dsss/wavio"
)

type qualityFlags struct {
	keyFlags
	alphas     []float64
	segsecs    []float64
	text       string
	channel    int
	workers    int
	requantize bool
	database   string
	format     string
}

func (a *app) qualityCmd() *cobra.Command {
	var f qualityFlags
	cmd := &cobra.Command{
		Use:   "quality <input.wav>",
		Short: "Sweep embedding strength and segment duration",
		Long: `Embed and extract a test text for every combination of alpha and segment
duration, and report audibility (SNR, PSNR, MSE) and detectability (bit error
rate, correlation margin) of each.

Results can be recorded in an SQLite database with --db.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.quality(cmd, &f, args[0])
		},
	}
	fs := cmd.Flags()
	f.keyFlags.register(fs)
	fs.Float64SliceVar(&f.alphas, "alphas", nil, "alphas to try (default from config)")
	fs.Float64SliceVar(&f.segsecs, "segsecs", nil, "segment durations in seconds to try (default from config)")
	fs.StringVar(&f.text, "text", "", "test watermark (default from config)")
	fs.IntVar(&f.channel, "channel", 0, "WAV channel carrying the watermark")
	fs.IntVar(&f.workers, "workers", 0, "number of goroutines (default every CPU)")
	fs.BoolVar(&f.requantize, "requantize", true, "round-trip through the input's bit depth before extracting")
	fs.StringVar(&f.database, "db", "", "SQLite database to record results in")
	fs.StringVarP(&f.format, "format", "o", "table", "output format: table or yaml")
	return cmd
}

func (a *app) quality(cmd *cobra.Command, f *qualityFlags, in string) error {
	c := *a.cfg
	fs := cmd.Flags()
	f.keyFlags.apply(fs, &c)
	if fs.Changed("alphas") {
		c.Quality.Alphas = f.alphas
	}
	if fs.Changed("segsecs") {
		c.Quality.SegmentSeconds = f.segsecs
	}
	if fs.Changed("text") {
		c.Quality.Text = f.text
	}
	if fs.Changed("channel") {
		c.Channel = f.channel
	}
	if fs.Changed("workers") {
		c.Workers = f.workers
	}
	if fs.Changed("db") {
		c.Database = f.database
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if f.format != "table" && f.format != "yaml" {
		return fmt.Errorf("unknown format %q", f.format)
	}
	key, err := a.key(&c, f.keyHour)
	if err != nil {
		return err
	}

	audio, err := wavio.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}
	sig, err := audio.Signal(c.Channel)
	if err != nil {
		return err
	}
	p := quality.Params{
		Alphas:         c.Quality.Alphas,
		SegmentSeconds: c.Quality.SegmentSeconds,
		Text:           c.Quality.Text,
		Key:            key,
		Workers:        c.Workers,
	}
	if f.requantize {
		p.Quantize = audio.BitDepth
	}
	a.log.Info("sweeping", "points", len(p.Alphas)*len(p.SegmentSeconds), "quantize", p.Quantize)

	results, err := quality.Sweep(cmd.Context(), sig, p)
	if err != nil {
		return err
	}
	var best []*db.DetailedResult
	if c.Database != "" {
		var runID string
		runID, best, err = record(&c, in, sig.SampleRate, len(sig.Samples), p, results)
		if err != nil {
			return err
		}
		a.log.Info("recorded results", "database", c.Database, "run", runID)
		for _, b := range best {
			a.log.Info("best alpha", "segsecs", b.SegmentSeconds, "alpha", b.Alpha, "snr", b.SNR)
		}
	}

	out := cmd.OutOrStdout()
	if f.format == "yaml" {
		data, err := yaml.Marshal(results)
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		_, err = out.Write(data)
		return err
	}
	if err := writeTable(out, results); err != nil {
		return err
	}
	if c.Database == "" {
		return nil
	}
	return writeBest(out, best)
}

// record stores the sweep as a new run and returns its ID with the smallest
// successful alpha per segment duration.
func record(c *config.Config, source string, rate, samples int, p quality.Params, results []quality.Result) (string, []*db.DetailedResult, error) {
	d, err := db.Open(c.Database)
	if err != nil {
		return "", nil, err
	}
	defer d.Close()

	runID, err := d.InsertRun(&db.Run{
		Source:     source,
		SampleRate: rate,
		Samples:    samples,
		Text:       p.Text,
	})
	if err != nil {
		return "", nil, err
	}
	for _, r := range results {
		paramID, err := d.InsertParam(r.Alpha, r.SegmentSeconds, p.Quantize)
		if err != nil {
			return "", nil, err
		}
		_, err = d.InsertResult(&db.Result{
			RunID:         runID,
			ParamID:       paramID,
			SegmentLength: r.SegmentLength,
			Bits:          r.Bits,
			Capacity:      r.Capacity,
			Skipped:       r.Skipped,
			SNR:           r.SNR,
			PSNR:          r.PSNR,
			MSE:           r.MSE,
			BER:           r.BER,
			Success:       r.Success,
			Extracted:     r.Extracted,
			MarginMean:    r.MarginMean,
			MarginStd:     r.MarginStd,
		})
		if err != nil {
			return "", nil, err
		}
	}
	best, err := d.BestAlphas(runID)
	if err != nil {
		return "", nil, err
	}
	return runID, best, nil
}

func writeTable(w io.Writer, results []quality.Result) error {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("alpha", "segsecs", "capacity", "snr dB", "ber", "margin", "result").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, r := range results {
		if r.Skipped {
			t.Row(fmtFloat(r.Alpha), fmtFloat(r.SegmentSeconds), strconv.Itoa(r.Capacity), "-", "-", "-", "too short")
			continue
		}
		result := "ok"
		if !r.Success {
			result = "failed"
		}
		t.Row(
			fmtFloat(r.Alpha),
			fmtFloat(r.SegmentSeconds),
			strconv.Itoa(r.Capacity),
			strconv.FormatFloat(r.SNR, 'f', 1, 64),
			strconv.FormatFloat(r.BER, 'f', 3, 64),
			fmt.Sprintf("%.2f±%.2f", r.MarginMean, r.MarginStd),
			result,
		)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func writeBest(w io.Writer, best []*db.DetailedResult) error {
	if _, err := fmt.Fprintln(w, "Best alpha per segment duration:"); err != nil {
		return err
	}
	if len(best) == 0 {
		_, err := fmt.Fprintln(w, "  none succeeded")
		return err
	}
	for _, b := range best {
		_, err := fmt.Fprintf(w, "  segsecs %s: alpha %s (snr %.1f dB, margin %.2f)\n",
			fmtFloat(b.SegmentSeconds), fmtFloat(b.Alpha), b.SNR, b.MarginMean)
		if err != nil {
			return err
		}
	}
	return nil
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
