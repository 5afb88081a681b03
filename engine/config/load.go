package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CHAOS_COLORPALETTE or CHAOS_QUALITY_MAXFRAME.
const EnvPrefix = "CHAOS"

// DefaultFileName is searched for in the working directory when no file is given.
const DefaultFileName = "chaos.toml"

// Load resolves the configuration and validates it.
//
// Parameters:
//   - options: functional options selecting the file and extra bindings
//
// Returns:
//   - Config: the effective configuration
//   - error: a read, decode or validation error
func Load(options ...LoaderBuilderOption) (Config, error) {
	l := &loader{searchPaths: []string{"."}}
	for _, opt := range options {
		opt(l)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("toml")

	if l.file != "" {
		v.SetConfigFile(l.file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", l.file, err)
		}
	} else if len(l.searchPaths) > 0 {
		v.SetConfigName(strings.TrimSuffix(DefaultFileName, ".toml"))
		for _, p := range l.searchPaths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		common.Logger().Debug("config file loaded", slog.String("path", used))
	}

	for _, bind := range l.bindings {
		if err := bind(v); err != nil {
			return Config{}, fmt.Errorf("bind config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

type loader struct {
	file        string
	searchPaths []string
	bindings    []func(v *viper.Viper) error
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("colorPalette", c.ColorPalette)
	v.SetDefault("watchPalette", c.WatchPalette)
	v.SetDefault("kernelDir", c.KernelDir)
	v.SetDefault("fractal", c.Fractal)
	v.SetDefault("width", c.Width)
	v.SetDefault("height", c.Height)
	v.SetDefault("maxIterations", c.MaxIterations)
	v.SetDefault("precision", c.Precision)
	v.SetDefault("automaticQuality", c.AutomaticQuality)
	v.SetDefault("vsync", c.VSync)
	v.SetDefault("debug", c.Debug)
	v.SetDefault("logLevel", c.LogLevel)
	v.SetDefault("profile", c.Profile)
	v.SetDefault("snapshotWorkers", c.SnapshotWorkers)
	v.SetDefault("snapshotDirectory", c.SnapshotDirectory)
	v.SetDefault("snapshotFormat", c.SnapshotFormat)
	v.SetDefault("quality.shortestFrame", c.Quality.ShortestFrame)
	v.SetDefault("quality.maxFrame", c.Quality.MaxFrame)
	v.SetDefault("quality.baselineSuperSampling", c.Quality.BaselineSuperSampling)
	v.SetDefault("quality.backoffBase", c.Quality.BackoffBase)
	v.SetDefault("quality.maxSuperSampling", c.Quality.MaxSuperSampling)
	v.SetDefault("quality.idleGrace", c.Quality.IdleGrace)
}
