package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/Carmen-Shannon/chaos-go/engine"
	"github.com/Carmen-Shannon/chaos-go/engine/config"
	"github.com/Carmen-Shannon/chaos-go/engine/gpu"
	"github.com/Carmen-Shannon/chaos-go/engine/quality"
	"github.com/Carmen-Shannon/chaos-go/engine/renderer"
	"github.com/Carmen-Shannon/chaos-go/engine/snapshot"
	"github.com/Carmen-Shannon/chaos-go/engine/window"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"palette":           "colorPalette",
	"watch-palette":     "watchPalette",
	"kernel-dir":        "kernelDir",
	"fractal":           "fractal",
	"width":             "width",
	"height":            "height",
	"max-iterations":    "maxIterations",
	"precision":         "precision",
	"automatic-quality": "automaticQuality",
	"vsync":             "vsync",
	"debug":             "debug",
	"log-level":         "logLevel",
	"profile":           "profile",
	"snapshot-workers":  "snapshotWorkers",
	"snapshot-dir":      "snapshotDirectory",
	"snapshot-format":   "snapshotFormat",
}

type rootOptions struct {
	configFile string
	cpuProfile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "chaosview",
		Short:         "Interactive GPU fractal viewer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(c, opts)
		},
	}

	d := config.Default()
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "TOML config file (default ./"+config.DefaultFileName+" if present)")
	flags.StringVar(&opts.cpuProfile, "cpuprofile", "", "write a CPU profile into this directory")
	flags.String("palette", d.ColorPalette, "palette PNG, first row is used (default bundled palette)")
	flags.Bool("watch-palette", d.WatchPalette, "reload the palette when the file changes")
	flags.String("kernel-dir", d.KernelDir, "directory of .wgsl kernels replacing the bundled ones")
	flags.String("fractal", d.Fractal, "fractal shown first")
	flags.Int("width", d.Width, "window width")
	flags.Int("height", d.Height, "window height")
	flags.Int("max-iterations", d.MaxIterations, "initial iteration cap")
	flags.String("precision", d.Precision, "auto, single or double")
	flags.Bool("automatic-quality", d.AutomaticQuality, "size supersampling to the frame budget")
	flags.Bool("vsync", d.VSync, "synchronise presentation with the display")
	flags.Bool("debug", d.Debug, "stop on render failures instead of dropping the frame")
	flags.String("log-level", d.LogLevel, "debug, info, warn or error")
	flags.Bool("profile", d.Profile, "log frame statistics every second")
	flags.Int("snapshot-workers", d.SnapshotWorkers, "concurrent snapshot encoders")
	flags.String("snapshot-dir", d.SnapshotDirectory, "directory snapshots are written to")
	flags.String("snapshot-format", d.SnapshotFormat, "png, jpeg, bmp or tiff")

	cmd.AddCommand(newConfigCommand(opts))
	return cmd
}

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return c.Dump(cmd.OutOrStdout())
		},
	})
	return cmd
}

// loadConfig resolves the configuration with the command's flags bound on top of the file and environment.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	options := []config.LoaderBuilderOption{
		config.WithBindings(func(v *viper.Viper) error {
			return bindFlags(v, cmd.Flags())
		}),
	}
	if opts.configFile != "" {
		options = append(options, config.WithFile(opts.configFile))
	}
	return config.Load(options...)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("flag %s: %w", name, err)
		}
	}
	return nil
}

// run opens the window and blocks in the frame loop until it is closed.
func run(c config.Config, opts *rootOptions) error {
	level, _ := c.Level()
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if opts.cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(opts.cpuProfile), profile.NoShutdownHook).Stop()
	}

	providerOptions := []renderer.ProviderBuilderOption{renderer.WithMaxIterations(c.MaxIterations)}
	if c.KernelDir != "" {
		providerOptions = append(providerOptions, renderer.WithKernels(os.DirFS(c.KernelDir)))
	}
	if mode, auto, _ := c.PrecisionMode(); !auto {
		providerOptions = append(providerOptions, renderer.WithForcedMode(mode))
	}
	format, _ := snapshot.ParseFormat(c.SnapshotFormat)

	w := window.NewWindow(
		window.WithTitle("chaos"),
		window.WithSize(c.Width, c.Height),
	)
	eng, err := engine.NewEngine(
		engine.WithWindow(w),
		engine.WithContextOptions(gpu.WithVSync(c.VSync)),
		engine.WithProviderOptions(providerOptions...),
		engine.WithControllerOptions(
			quality.WithTunables(c.Tunables()),
			quality.WithAutomaticQuality(c.AutomaticQuality),
		),
		engine.WithDebug(c.Debug),
		engine.WithProfiling(c.Profile),
		engine.WithFractal(c.Fractal),
		engine.WithPalette(c.ColorPalette, c.WatchPalette),
		engine.WithSaver(snapshot.NewSaver(
			snapshot.WithWorkers(c.SnapshotWorkers),
			snapshot.WithDirectory(c.SnapshotDirectory),
		)),
		engine.WithSnapshotFormat(format),
	)
	if err != nil {
		w.Close()
		return err
	}
	eng.Run()
	return nil
}
