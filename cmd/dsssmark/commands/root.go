package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yyyoichi/watermark_dsss/config"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
)

// app holds the state shared by every command of one invocation.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *slog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "dsssmark",
		Short: "Spread-spectrum audio watermarking",
		Long: `dsssmark - embed and recover text watermarks in WAV audio.

Each bit of the watermark is spread over one segment of samples with a
key-derived ±1 sequence. Extraction needs the same key and segment duration.

Examples:
  dsssmark embed in.wav out.wav "Hello" --key secret
  dsssmark extract out.wav --key secret
  dsssmark quality in.wav --alphas 0.01,0.05,0.1 --segsecs 0.1,0.5 --db sweep.db
  dsssmark config init dsssmark.yaml`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		a.embedCmd(),
		a.extractCmd(),
		a.qualityCmd(),
		a.prnCmd(),
		a.configCmd(),
	)
	return root
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}
