package commands

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yyyoichi/watermark_dsss/config"
	"github.com/yyyoichi/watermark_dsss/internal/db"
	"github.com/yyyoichi/watermark_dsss/wavio"
)

func init() {
	color.NoColor = true
}

// run executes the CLI and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	t.Log(stderr.String())
	return stdout.String(), err
}

// writeTone writes a stereo 16-bit 8 kHz tone of the given length.
func writeTone(t *testing.T, seconds float64) string {
	t.Helper()
	const rate = 8000
	a := &wavio.Audio{SampleRate: rate, BitDepth: 16, NumChannels: 2}
	for i := range int(seconds * rate) {
		x := 0.3 * math.Sin(2*math.Pi*440*float64(i)/rate)
		a.Data = append(a.Data, wavio.Quantize(x, 16), wavio.Quantize(0.5*x, 16))
	}
	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, a.WriteFile(path))
	return path
}

func TestEmbedExtract(t *testing.T) {
	in := writeTone(t, 3)
	out := filepath.Join(t.TempDir(), "marked.wav")

	stdout, err := run(t, "embed", in, out, "Hi", "--key", "k", "--segsecs", "0.1", "--channel", "1")
	require.NoError(t, err)
	assert.Equal(t, "Embedded watermark: Hi\n", stdout)

	stdout, err = run(t, "extract", out, "--key", "k", "--segsecs", "0.1", "--channel", "1")
	require.NoError(t, err)
	assert.Equal(t, "Extracted watermark: Hi\n", stdout)

	stdout, err = run(t, "extract", out, "--key", "other", "--segsecs", "0.1", "--channel", "1")
	require.NoError(t, err)
	assert.NotEqual(t, "Extracted watermark: Hi\n", stdout)

	// the untouched channel is unchanged
	orig, err := wavio.ReadFile(in)
	require.NoError(t, err)
	marked, err := wavio.ReadFile(out)
	require.NoError(t, err)
	for i := 0; i < len(orig.Data); i += 2 {
		require.Equal(t, orig.Data[i], marked.Data[i])
	}
}

func TestEmbedWithConfig(t *testing.T) {
	in := writeTone(t, 3)
	out := filepath.Join(t.TempDir(), "marked.wav")
	cfgPath := filepath.Join(t.TempDir(), "dsssmark.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("key: from-config\nsegment_seconds: 0.1\nlog_level: debug\n"), 0o600))

	_, err := run(t, "embed", in, out, "Hi", "--config", cfgPath)
	require.NoError(t, err)

	stdout, err := run(t, "extract", out, "--key", "from-config", "--segsecs", "0.1")
	require.NoError(t, err)
	assert.Equal(t, "Extracted watermark: Hi\n", stdout)

	// key from the file
	stdout, err = run(t, "extract", out, "--config", cfgPath, "--segsecs", "0.1")
	require.NoError(t, err)
	assert.Equal(t, "Extracted watermark: Hi\n", stdout)
}

func TestMasterKey(t *testing.T) {
	in := writeTone(t, 3)
	out := filepath.Join(t.TempDir(), "marked.wav")
	keyArgs := []string{"--master-key", "org", "--salt", "s", "--key-hour", "2025111209", "--segsecs", "0.1"}

	_, err := run(t, append([]string{"embed", in, out, "Hi"}, keyArgs...)...)
	require.NoError(t, err)

	stdout, err := run(t, append([]string{"extract", out}, keyArgs...)...)
	require.NoError(t, err)
	assert.Equal(t, "Extracted watermark: Hi\n", stdout)

	_, err = run(t, "extract", out, "--master-key", "org", "--key-hour", "noon")
	assert.Error(t, err)
}

func TestExtractNotFound(t *testing.T) {
	in := writeTone(t, 0.05)
	stdout, err := run(t, "extract", in, "--segsecs", "0.1")
	require.NoError(t, err)
	assert.Equal(t, "No watermark found\n", stdout)
}

func TestEmbedErrors(t *testing.T) {
	in := writeTone(t, 1)
	out := filepath.Join(t.TempDir(), "marked.wav")

	_, err := run(t, "embed", in, out, "Hi", "--segsecs", "0.1")
	assert.ErrorContains(t, err, "audio too short for watermark")
	assert.NoFileExists(t, out)

	_, err = run(t, "embed", in, out, "Hi", "--alpha", "-1")
	assert.Error(t, err)

	_, err = run(t, "embed", in, out, "Hi", "--channel", "2")
	assert.Error(t, err)

	_, err = run(t, "embed", filepath.Join(t.TempDir(), "missing.wav"), out, "Hi")
	assert.Error(t, err)

	_, err = run(t, "embed", in, out)
	assert.Error(t, err)

	_, err = run(t, "extract", in, "--log-level", "loud")
	assert.Error(t, err)
}

func TestQuality(t *testing.T) {
	in := writeTone(t, 3)
	dbPath := filepath.Join(t.TempDir(), "quality.db")

	stdout, err := run(t, "quality", in,
		"--alphas", "0.05,0.1",
		"--segsecs", "0.1,0.5",
		"--text", "Hi",
		"--db", dbPath,
		"--format", "yaml",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "alpha: 0.05")
	assert.Contains(t, stdout, "skipped: true")
	assert.Contains(t, stdout, "success: true")

	d, err := db.Open(dbPath)
	require.NoError(t, err)
	defer d.Close()
	runs, err := d.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Hi", runs[0].Text)
	results, err := d.Results(runs[0].ID)
	require.NoError(t, err)
	assert.Len(t, results, 4)

	best, err := d.BestAlphas(runs[0].ID)
	require.NoError(t, err)
	require.Len(t, best, 1)
	assert.Equal(t, 0.1, best[0].SegmentSeconds)

	stdout, err = run(t, "quality", in, "--alphas", "0.1", "--segsecs", "0.1", "--text", "Hi")
	require.NoError(t, err)
	assert.Contains(t, stdout, "alpha")
	assert.Contains(t, stdout, "ok")
	assert.NotContains(t, stdout, "Best alpha")

	stdout, err = run(t, "quality", in, "--alphas", "0.1", "--segsecs", "0.1,0.5", "--text", "Hi", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Best alpha per segment duration:\n  segsecs 0.1: alpha 0.1 (snr")
	assert.NotContains(t, stdout, "segsecs 0.5:")

	runs, err = d.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	_, err = run(t, "quality", in, "--format", "json")
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "dsssmark.yaml")

	stdout, err := run(t, "config", "init", path, "--log-level", "debug")
	require.NoError(t, err)
	assert.Equal(t, "Wrote config: "+path+"\n", stdout)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	want := config.Default()
	want.LogLevel = "debug"
	assert.Equal(t, want, cfg)

	_, err = run(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	// the written file seeds the next one
	src := filepath.Join(dir, "src.yaml")
	require.NoError(t, os.WriteFile(src, []byte("key: from-file\nsegment_seconds: 0.1\n"), 0o600))
	_, err = run(t, "config", "init", path, "--force", "--config", src)
	require.NoError(t, err)
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Key)
	assert.Equal(t, 0.1, cfg.SegmentSeconds)

	in := writeTone(t, 3)
	out := filepath.Join(dir, "marked.wav")
	_, err = run(t, "embed", in, out, "Hi", "--config", path)
	require.NoError(t, err)
	stdout, err = run(t, "extract", out, "--key", "from-file", "--segsecs", "0.1")
	require.NoError(t, err)
	assert.Equal(t, "Extracted watermark: Hi\n", stdout)
}

func TestPRN(t *testing.T) {
	stdout, err := run(t, "prn", "--key", "secret", "--index", "0", "--length", "16")
	require.NoError(t, err)
	assert.Equal(t, "1 1 -1 -1 1 1 -1 1 1 1 -1 1 1 1 1 -1\n", stdout)

	stdout, err = run(t, "prn", "--key", "secret", "--index", "1", "--length", "4")
	require.NoError(t, err)
	assert.Equal(t, "-1 -1 1 1\n", stdout)

	_, err = run(t, "prn", "--index", "-1")
	assert.Error(t, err)
}
