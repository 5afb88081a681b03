// Package config loads the viewer settings from defaults, an optional TOML file, CHAOS_ environment variables and
// command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Carmen-Shannon/chaos-go/engine/precision"
	"github.com/Carmen-Shannon/chaos-go/engine/quality"
	"github.com/Carmen-Shannon/chaos-go/engine/snapshot"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is returned when a loaded setting is outside its domain.
var ErrInvalidConfig = errors.New("config: invalid setting")

// PrecisionAuto lets renderers switch from single to double precision at the float limit.
const PrecisionAuto = "auto"

// Quality holds the quality controller tunables.
type Quality struct {
	ShortestFrame         time.Duration `mapstructure:"shortestFrame"`
	MaxFrame              time.Duration `mapstructure:"maxFrame"`
	BaselineSuperSampling int           `mapstructure:"baselineSuperSampling"`
	BackoffBase           float64       `mapstructure:"backoffBase"`
	MaxSuperSampling      int           `mapstructure:"maxSuperSampling"`
	IdleGrace             time.Duration `mapstructure:"idleGrace"`
}

// Config is the effective viewer configuration.
type Config struct {
	// ColorPalette is a PNG whose first row is the palette. Empty selects the bundled palette.
	ColorPalette string `mapstructure:"colorPalette"`

	// WatchPalette reloads ColorPalette when the file changes.
	WatchPalette bool `mapstructure:"watchPalette"`

	// KernelDir replaces the bundled kernels with the .wgsl files of a directory.
	KernelDir string `mapstructure:"kernelDir"`

	// Fractal is the kernel name shown first.
	Fractal string `mapstructure:"fractal"`

	Width         int `mapstructure:"width"`
	Height        int `mapstructure:"height"`
	MaxIterations int `mapstructure:"maxIterations"`

	// Precision is "auto", "single" or "double".
	Precision string `mapstructure:"precision"`

	AutomaticQuality bool    `mapstructure:"automaticQuality"`
	VSync            bool    `mapstructure:"vsync"`
	Quality          Quality `mapstructure:"quality"`

	// Debug makes the dispatch policy fail fast instead of logging and dropping failed frames.
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"logLevel"`

	// Profile logs frame statistics every second.
	Profile bool `mapstructure:"profile"`

	SnapshotWorkers   int    `mapstructure:"snapshotWorkers"`
	SnapshotDirectory string `mapstructure:"snapshotDirectory"`
	SnapshotFormat    string `mapstructure:"snapshotFormat"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	t := quality.DefaultTunables()
	return Config{
		WatchPalette:     true,
		Fractal:          "mandelbrot",
		Width:            1280,
		Height:           720,
		MaxIterations:    1024,
		Precision:        PrecisionAuto,
		AutomaticQuality: true,
		VSync:            true,
		Quality: Quality{
			ShortestFrame:         t.ShortestFrame,
			MaxFrame:              t.MaxFrame,
			BaselineSuperSampling: t.BaselineSuperSampling,
			BackoffBase:           t.BackoffBase,
			MaxSuperSampling:      t.MaxSuperSampling,
			IdleGrace:             t.IdleGrace,
		},
		LogLevel:          "info",
		SnapshotWorkers:   2,
		SnapshotDirectory: ".",
		SnapshotFormat:    string(snapshot.FormatPNG),
	}
}

// Validate checks every setting and returns the first violation wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("window size %dx%d must be positive: %w", c.Width, c.Height, ErrInvalidConfig)
	case c.MaxIterations < 1:
		return fmt.Errorf("maxIterations %d must be positive: %w", c.MaxIterations, ErrInvalidConfig)
	case c.SnapshotWorkers < 1:
		return fmt.Errorf("snapshotWorkers %d must be positive: %w", c.SnapshotWorkers, ErrInvalidConfig)
	case c.Fractal == "":
		return fmt.Errorf("fractal must not be empty: %w", ErrInvalidConfig)
	}
	if _, _, err := c.PrecisionMode(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := snapshot.ParseFormat(c.SnapshotFormat); err != nil {
		return fmt.Errorf("snapshotFormat: %w: %w", err, ErrInvalidConfig)
	}
	return nil
}

// PrecisionMode resolves the precision setting.
//
// Returns:
//   - precision.Mode: the forced mode, meaningless when auto is true
//   - bool: true for automatic switching
//   - error: ErrInvalidConfig for an unknown value
func (c Config) PrecisionMode() (precision.Mode, bool, error) {
	if strings.EqualFold(strings.TrimSpace(c.Precision), PrecisionAuto) {
		return precision.Single, true, nil
	}
	m, err := precision.Parse(c.Precision)
	if err != nil {
		return m, false, fmt.Errorf("precision: %w: %w", err, ErrInvalidConfig)
	}
	return m, false, nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("logLevel: %w: %w", err, ErrInvalidConfig)
	}
	return l, nil
}

// Tunables converts the quality section for the controller.
func (c Config) Tunables() quality.Tunables {
	return quality.Tunables{
		ShortestFrame:         c.Quality.ShortestFrame,
		MaxFrame:              c.Quality.MaxFrame,
		BaselineSuperSampling: c.Quality.BaselineSuperSampling,
		BackoffBase:           c.Quality.BackoffBase,
		MaxSuperSampling:      c.Quality.MaxSuperSampling,
		IdleGrace:             c.Quality.IdleGrace,
	}
}

// document mirrors Config for TOML output, spelling durations the way they are read back.
type document struct {
	ColorPalette      string          `toml:"colorPalette"`
	WatchPalette      bool            `toml:"watchPalette"`
	KernelDir         string          `toml:"kernelDir"`
	Fractal           string          `toml:"fractal"`
	Width             int             `toml:"width"`
	Height            int             `toml:"height"`
	MaxIterations     int             `toml:"maxIterations"`
	Precision         string          `toml:"precision"`
	AutomaticQuality  bool            `toml:"automaticQuality"`
	VSync             bool            `toml:"vsync"`
	Debug             bool            `toml:"debug"`
	LogLevel          string          `toml:"logLevel"`
	Profile           bool            `toml:"profile"`
	SnapshotWorkers   int             `toml:"snapshotWorkers"`
	SnapshotDirectory string          `toml:"snapshotDirectory"`
	SnapshotFormat    string          `toml:"snapshotFormat"`
	Quality           qualityDocument `toml:"quality"`
}

type qualityDocument struct {
	ShortestFrame         string  `toml:"shortestFrame"`
	MaxFrame              string  `toml:"maxFrame"`
	BaselineSuperSampling int     `toml:"baselineSuperSampling"`
	BackoffBase           float64 `toml:"backoffBase"`
	MaxSuperSampling      int     `toml:"maxSuperSampling"`
	IdleGrace             string  `toml:"idleGrace"`
}

// Dump writes c as a TOML document that Load accepts as a config file.
//
// Parameters:
//   - w: the destination
//
// Returns:
//   - error: the encoder error
func (c Config) Dump(w io.Writer) error {
	doc := document{
		ColorPalette:      c.ColorPalette,
		WatchPalette:      c.WatchPalette,
		KernelDir:         c.KernelDir,
		Fractal:           c.Fractal,
		Width:             c.Width,
		Height:            c.Height,
		MaxIterations:     c.MaxIterations,
		Precision:         c.Precision,
		AutomaticQuality:  c.AutomaticQuality,
		VSync:             c.VSync,
		Debug:             c.Debug,
		LogLevel:          c.LogLevel,
		Profile:           c.Profile,
		SnapshotWorkers:   c.SnapshotWorkers,
		SnapshotDirectory: c.SnapshotDirectory,
		SnapshotFormat:    c.SnapshotFormat,
		Quality: qualityDocument{
			ShortestFrame:         c.Quality.ShortestFrame.String(),
			MaxFrame:              c.Quality.MaxFrame.String(),
			BaselineSuperSampling: c.Quality.BaselineSuperSampling,
			BackoffBase:           c.Quality.BackoffBase,
			MaxSuperSampling:      c.Quality.MaxSuperSampling,
			IdleGrace:             c.Quality.IdleGrace.String(),
		},
	}
	return toml.NewEncoder(w).Encode(doc)
}
