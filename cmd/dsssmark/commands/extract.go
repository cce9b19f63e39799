package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	watermark "github.com/yyyoichi/watermark_dsss"
	"github.com/yyyoichi/watermark_dsss/wavio"
)

func (a *app) extractCmd() *cobra.Command {
	var f markFlags
	cmd := &cobra.Command{
		Use:   "extract <input.wav>",
		Short: "Recover a text watermark from a WAV file",
		Long: `Recover a text watermark from one channel of a WAV file.

The key and segment duration must match the ones used to embed. Alpha is
accepted for symmetry with embed and does not affect extraction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.extract(cmd, &f, args[0])
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (a *app) extract(cmd *cobra.Command, f *markFlags, in string) error {
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

	start := time.Now()
	res, err := w.Extract(cmd.Context(), sig)
	if err != nil {
		return fmt.Errorf("failed to extract watermark: %w", err)
	}
	a.log.Debug("extracted",
		"segment_length", res.SegmentLength,
		"bits", len(res.Bits),
		"found", res.Found,
		"partial", res.Partial,
		"elapsed", time.Since(start),
	)

	out := cmd.OutOrStdout()
	if !res.Found {
		yellow.Fprintln(out, "No watermark found")
		return nil
	}
	green.Fprintf(out, "Extracted watermark: %s\n", res.Text)
	return nil
}
