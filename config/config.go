// Package config loads dsssmark settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	watermark "github.com/yyyoichi/watermark_dsss"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the watermark parameters shared by every command.
// Zero values fall back to Default.
type Config struct {
	// Key is the watermark key. Ignored when MasterKey is set.
	Key string `yaml:"key,omitempty"`

	// MasterKey and Salt derive an hour-bound key (see package keygen).
	MasterKey string `yaml:"master_key,omitempty"`
	Salt      string `yaml:"salt,omitempty"`

	Alpha          float64 `yaml:"alpha,omitempty"`
	SegmentSeconds float64 `yaml:"segment_seconds,omitempty"`

	// Channel is the WAV channel carrying the watermark.
	Channel int `yaml:"channel,omitempty"`

	// Workers is the number of goroutines; 0 uses every CPU.
	Workers int `yaml:"workers,omitempty"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level,omitempty"`

	// Database is the SQLite file quality runs are recorded in.
	Database string `yaml:"database,omitempty"`

	Quality Quality `yaml:"quality,omitempty"`
}

// Quality is the parameter grid of the quality command.
type Quality struct {
	Alphas         []float64 `yaml:"alphas,omitempty"`
	SegmentSeconds []float64 `yaml:"segment_seconds,omitempty"`
	Text           string    `yaml:"text,omitempty"`
}

func Default() *Config {
	return &Config{
		Key:            watermark.DefaultKey,
		Alpha:          watermark.DefaultAlpha,
		SegmentSeconds: watermark.DefaultSegmentSeconds,
		LogLevel:       "info",
		Quality: Quality{
			Alphas:         []float64{0.005, 0.01, 0.05, 0.1},
			SegmentSeconds: []float64{0.1, 0.25, 0.5},
			Text:           "dsss",
		},
	}
}

// Load reads path over Default. An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if !validPositive(c.Alpha) {
		return fmt.Errorf("%w: alpha %v", ErrInvalidConfig, c.Alpha)
	}
	if !validPositive(c.SegmentSeconds) {
		return fmt.Errorf("%w: segment_seconds %v", ErrInvalidConfig, c.SegmentSeconds)
	}
	if c.Channel < 0 {
		return fmt.Errorf("%w: channel %d", ErrInvalidConfig, c.Channel)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	for _, a := range c.Quality.Alphas {
		if !validPositive(a) {
			return fmt.Errorf("%w: quality alpha %v", ErrInvalidConfig, a)
		}
	}
	for _, s := range c.Quality.SegmentSeconds {
		if !validPositive(s) {
			return fmt.Errorf("%w: quality segment_seconds %v", ErrInvalidConfig, s)
		}
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return l, nil
}

// Options converts the configuration to watermark options using key.
func (c *Config) Options(key string) []watermark.Option {
	opts := []watermark.Option{
		watermark.WithKey(key),
		watermark.WithAlpha(c.Alpha),
		watermark.WithSegmentSeconds(c.SegmentSeconds),
	}
	if c.Workers > 0 {
		opts = append(opts, watermark.WithWorkers(c.Workers))
	}
	return opts
}

func validPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
