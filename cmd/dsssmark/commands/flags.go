package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yyyoichi/watermark_dsss/config"
	"github.com/yyyoichi/watermark_dsss/keygen"
)

// keyFlags select the watermark key, either directly or derived from a master key.
type keyFlags struct {
	key       string
	masterKey string
	salt      string
	keyHour   string
}

func (f *keyFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.key, "key", "", "watermark key (default \"secret\")")
	fs.StringVar(&f.masterKey, "master-key", "", "derive the key from this master key instead of --key")
	fs.StringVar(&f.salt, "salt", "", "salt for --master-key")
	fs.StringVar(&f.keyHour, "key-hour", "", "hour the derived key is bound to, RFC3339 or 2006010215 (default now)")
}

// markFlags are the embedding parameters.
type markFlags struct {
	keyFlags
	alpha   float64
	segsecs float64
	channel int
	workers int
}

func (f *markFlags) register(fs *pflag.FlagSet) {
	f.keyFlags.register(fs)
	fs.Float64Var(&f.alpha, "alpha", 0, "embedding strength (default 0.1)")
	fs.Float64Var(&f.segsecs, "segsecs", 0, "segment duration per bit in seconds (default 0.5)")
	fs.IntVar(&f.channel, "channel", 0, "WAV channel carrying the watermark")
	fs.IntVar(&f.workers, "workers", 0, "number of goroutines (default every CPU)")
}

// resolve applies the flags that were set on top of the loaded config and
// returns the key to use.
func (a *app) resolve(cmd *cobra.Command, f *markFlags) (*config.Config, string, error) {
	c := *a.cfg
	fs := cmd.Flags()
	f.keyFlags.apply(fs, &c)
	if fs.Changed("alpha") {
		c.Alpha = f.alpha
	}
	if fs.Changed("segsecs") {
		c.SegmentSeconds = f.segsecs
	}
	if fs.Changed("channel") {
		c.Channel = f.channel
	}
	if fs.Changed("workers") {
		c.Workers = f.workers
	}
	if err := c.Validate(); err != nil {
		return nil, "", err
	}
	key, err := a.key(&c, f.keyHour)
	if err != nil {
		return nil, "", err
	}
	return &c, key, nil
}

func (f *keyFlags) apply(fs *pflag.FlagSet, c *config.Config) {
	if fs.Changed("key") {
		c.Key = f.key
	}
	if fs.Changed("master-key") {
		c.MasterKey = f.masterKey
	}
	if fs.Changed("salt") {
		c.Salt = f.salt
	}
}

func (a *app) key(c *config.Config, hour string) (string, error) {
	if c.MasterKey == "" {
		return c.Key, nil
	}
	gen, err := keygen.New([]byte(c.MasterKey), []byte(c.Salt))
	if err != nil {
		return "", err
	}
	ts := time.Now()
	if hour != "" {
		if ts, err = keygen.ParseHour(hour); err != nil {
			return "", err
		}
	}
	key, err := gen.Key(ts)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}
	a.log.Debug("derived key", "hour", ts.UTC().Format(keygen.HourLayout))
	return key, nil
}
