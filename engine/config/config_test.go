package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/chaos-go/engine/precision"
	"github.com/Carmen-Shannon/chaos-go/engine/quality"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chaos.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(WithSearchPaths())
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, quality.DefaultTunables(), c.Tunables())

	_, auto, err := c.PrecisionMode()
	require.NoError(t, err)
	assert.True(t, auto)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
colorPalette = "palettes/fire.png"
fractal = "burning_ship"
width = 800
precision = "double"

[quality]
maxFrame = "250ms"
maxSuperSampling = 64
`)
	c, err := Load(WithFile(path))
	require.NoError(t, err)

	assert.Equal(t, "palettes/fire.png", c.ColorPalette)
	assert.Equal(t, "burning_ship", c.Fractal)
	assert.Equal(t, 800, c.Width)
	assert.Equal(t, 720, c.Height)
	assert.Equal(t, 250*time.Millisecond, c.Quality.MaxFrame)
	assert.Equal(t, 64, c.Quality.MaxSuperSampling)
	assert.Equal(t, quality.DefaultTunables().ShortestFrame, c.Quality.ShortestFrame)

	mode, auto, err := c.PrecisionMode()
	require.NoError(t, err)
	assert.False(t, auto)
	assert.Equal(t, precision.Double, mode)
}

func TestLoadSearchesDirectory(t *testing.T) {
	path := writeFile(t, `maxIterations = 4096`)
	c, err := Load(WithSearchPaths(filepath.Dir(path)))
	require.NoError(t, err)
	assert.Equal(t, 4096, c.MaxIterations)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(WithFile(filepath.Join(t.TempDir(), "absent.toml")))
	assert.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, `colorPalette = "file.png"`)
	t.Setenv("CHAOS_COLORPALETTE", "env.png")
	t.Setenv("CHAOS_QUALITY_IDLEGRACE", "2s")

	c, err := Load(WithFile(path))
	require.NoError(t, err)
	assert.Equal(t, "env.png", c.ColorPalette)
	assert.Equal(t, 2*time.Second, c.Quality.IdleGrace)
}

func TestBindingsOverrideEnvironment(t *testing.T) {
	t.Setenv("CHAOS_FRACTAL", "burning_ship")
	c, err := Load(WithSearchPaths(), WithBindings(func(v *viper.Viper) error {
		v.Set("fractal", "mandelbrot")
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "mandelbrot", c.Fractal)
}

func TestDumpLoadsBack(t *testing.T) {
	want := Default()
	want.ColorPalette = "palette.png"
	want.Precision = "single"
	want.Quality.MaxFrame = 750 * time.Millisecond
	want.SnapshotFormat = "jpeg"

	var buf bytes.Buffer
	require.NoError(t, want.Dump(&buf))
	assert.Contains(t, buf.String(), "[quality]")
	assert.Contains(t, buf.String(), "750ms")

	got, err := Load(WithFile(writeFile(t, buf.String())))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"width":      func(c *Config) { c.Width = 0 },
		"iterations": func(c *Config) { c.MaxIterations = 0 },
		"workers":    func(c *Config) { c.SnapshotWorkers = 0 },
		"fractal":    func(c *Config) { c.Fractal = "" },
		"precision":  func(c *Config) { c.Precision = "quad" },
		"logLevel":   func(c *Config) { c.LogLevel = "loud" },
		"format":     func(c *Config) { c.SnapshotFormat = "gif" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestLevel(t *testing.T) {
	c := Default()
	c.LogLevel = "DEBUG"
	l, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", l.String())
}
