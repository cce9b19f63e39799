package commands

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	watermark "github.com/yyyoichi/watermark_dsss"
	"github.com/yyyoichi/watermark_dsss/mark"
	"github.com/yyyoichi/watermark_dsss/wavio"
)

func (a *app) embedCmd() *cobra.Command {
	var f markFlags
	cmd := &cobra.Command{
		Use:   "embed <input.wav> <output.wav> <watermark>",
		Short: "Embed a text watermark into a WAV file",
		Long: `Embed a text watermark into one channel of a WAV file.

Every character takes 8 segments and a terminator takes 8 more, so the input
must be at least (len(watermark)+1)*8*segsecs seconds long.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.embed(cmd, &f, args[0], args[1], args[2])
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (a *app) embed(cmd *cobra.Command, f *markFlags, in, out, text string) error {
	cfg, key, err := a.resolve(cmd, f)
	if err != nil {
		return err
	}
	w, err := watermark.New(cfg.Options(key)...)
	if err != nil {
		return err
	}

	audio, err := wavio.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}
	sig, err := audio.Signal(cfg.Channel)
	if err != nil {
		return err
	}
	a.log.Debug("read input",
		"path", in,
		"sample_rate", audio.SampleRate,
		"bit_depth", audio.BitDepth,
		"channels", audio.NumChannels,
		"duration", sig.Duration(),
	)
	a.log.Debug("embedding",
		"segment_length", w.SegmentLength(sig.SampleRate),
		"bits", (utf8.RuneCountInString(text)+1)*mark.BitsPerChar,
		"capacity", w.Capacity(sig),
		"alpha", cfg.Alpha,
		"workers", cfg.Workers,
	)

	start := time.Now()
	marked, err := w.Embed(cmd.Context(), sig, text)
	if err != nil {
		return fmt.Errorf("failed to embed watermark: %w", err)
	}
	a.log.Debug("embedded", "elapsed", time.Since(start))

	if err := audio.Replace(cfg.Channel, marked); err != nil {
		return err
	}
	if err := audio.WriteFile(out); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	a.log.Info("wrote watermarked audio", "path", out)
	green.Fprintf(cmd.OutOrStdout(), "Embedded watermark: %s\n", text)
	return nil
}
