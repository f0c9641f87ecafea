package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"picdither/config"
	"picdither/mangle"
	"picdither/parallel"
	"picdither/quantize"
)

var cli struct {
	Config   string `help:"TOML configuration file" type:"existingfile" short:"c"`
	LogLevel string `help:"Log level (debug, info, warn, error). Overrides the configuration"`
	Workers  int    `help:"Number of images processed in parallel. Overrides the configuration"`

	Dither        mangle.CLICmd           `cmd:"" help:"Dither all images of a folder"`
	Algorithms    mangle.AlgorithmsCmd    `cmd:"" help:"List dithering algorithms and grayscale policies"`
	Palettes      mangle.PalettesCmd      `cmd:"" help:"List palettes"`
	PaletteExport mangle.PaletteExportCmd `cmd:"" help:"Write a palette to a RIFF PAL or hex file"`
	ShowConfig    mangle.ConfigCmd        `cmd:"" name:"config" help:"Print the effective configuration"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("picdither"),
		kong.Description("Dither and quantize images to a palette."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	kctx.FatalIfErrorf(err)
	if cli.LogLevel != "" {
		cfg.Main.LogLevel = cli.LogLevel
	}
	if cli.Workers > 0 {
		cfg.Main.Workers = cli.Workers
	}
	kctx.FatalIfErrorf(cfg.Validate())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	if cfg.Level() <= slog.LevelDebug {
		quantize.SetLogger(logger.With("component", "quantize"))
	}

	env, err := mangle.NewEnv(cfg)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	pool := parallel.Start(cfg.Main.Workers)
	slog.Debug("starting", "command", kctx.Command(), "workers", pool.Size())
	worker, wait := pool.Funcs()
	err = kctx.Run(worker, wait, env)
	pool.Wait(true)
	if err != nil {
		slog.Error("command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
