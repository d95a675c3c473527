package main

import (
	// stdlib
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	// internal
	"github.com/Robogera/crowd/pkg/config"
	"github.com/Robogera/crowd/pkg/rpath"
	"github.com/Robogera/crowd/pkg/synapse"

	// external
	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"
)

const (
	default_cfg_path string = "../cfg/config.default.toml"
)

var (
	cfg_path      string
	input_path    string
	output_path   string
	weights_path  string
	sahi          bool
	write_default string
	exe_dir       string
)

func init() {
	var err error

	exe_dir, err = rpath.ExecutableDir()
	if err != nil {
		slog.Error("Can't find the executable's location", "error", err)
		return
	}

	flag.StringVar(&cfg_path, "config", default_cfg_path, "Path to config file")
	flag.StringVar(&input_path, "input", "", "Input video, device url or image folder, overrides the config")
	flag.StringVar(&output_path, "output", "", "Output video, overrides the config")
	flag.StringVar(&weights_path, "weights", "", "Detector model, overrides the config")
	flag.BoolVar(&sahi, "sahi", false, "Enable sliced inference")
	flag.StringVar(&write_default, "write-default", "", "Write the default config to this path and exit")
}

func logLevel(level string) (slog.Level, bool) {
	parsed := config.LoggingLevels.Parse(level)
	if parsed == nil {
		return slog.LevelError, false
	}
	switch *parsed {
	case config.LoggingLevelDebug:
		return slog.LevelDebug, true
	case config.LoggingLevelInfo:
		return slog.LevelInfo, true
	case config.LoggingLevelWarn:
		return slog.LevelWarn, true
	}
	return slog.LevelError, true
}

func main() {
	os.Exit(run())
}

func run() int {

	// Configuration init

	flag.Parse()

	if write_default != "" {
		if err := config.CreateDefault(write_default); err != nil {
			slog.Error("Can't write default config", "path", write_default, "error", err)
			return 1
		}
		slog.Info("Default config written", "path", write_default)
		return 0
	}

	cfg, err := config.Unmarshal(rpath.Convert(exe_dir, cfg_path))
	if err != nil {
		slog.Error("Config file not loaded. Shutting down...", "provided path", cfg_path, "error", err)
		return 1
	}

	if input_path != "" {
		cfg.Input.Path = input_path
	}
	if output_path != "" {
		cfg.Output.Path = output_path
	}
	if weights_path != "" {
		cfg.Model.Path = weights_path
	}
	if sahi {
		cfg.Slicing.Enabled = true
	}
	// flag values are taken relative to the working directory,
	// config values relative to the executable
	if input_path == "" {
		cfg.Input.Path = rpath.Convert(exe_dir, cfg.Input.Path)
	}
	if output_path == "" {
		cfg.Output.Path = rpath.Convert(exe_dir, cfg.Output.Path)
	}
	if weights_path == "" {
		cfg.Model.Path = rpath.Convert(exe_dir, cfg.Model.Path)
	}

	log_level, ok := logLevel(cfg.Logging.Level)
	if !ok {
		slog.Warn(
			"No valid logging level provided. Defaulting to LevelError",
			"provided value", cfg.Logging.Level)
	}

	run_id := uuid.NewString()
	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      log_level,
		TimeFormat: time.RFC3339,
		AddSource:  cfg.Logging.AddSource,
	})).With("run", run_id)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration. Shutting down...", "path", cfg_path, "error", err)
		return 1
	}

	logger.Info("Starting...", "input", cfg.Input.Path, "output", cfg.Output.Path, "model", cfg.Model.Path)

	ctx := context.Background()
	eg, child_ctx := errgroup.WithContext(ctx)

	var preview_chan chan []byte
	if cfg.Webserver.Enabled {
		preview_chan = make(chan []byte, 1)
		eg.Go(func() error {
			return webplayer(child_ctx, logger, cfg, preview_chan)
		})
	}

	var publish_chan chan *synapse.Command
	if cfg.Mqtt.Enabled {
		publish_chan = make(chan *synapse.Command, 16)
		eg.Go(func() error {
			return mqttclient(child_ctx, logger, cfg, publish_chan)
		})
	}

	eg.Go(func() error {
		return processor(child_ctx, logger, cfg, run_id, preview_chan, publish_chan)
	})

	eg.Go(func() error {
		return control(child_ctx, logger)
	})

	err = eg.Wait()

	code := 0
	switch {
	case errors.Is(err, ERR_STREAM_ENDED):
		logger.Info("Stopped", "reason", "end of stream")
	case errors.Is(err, ERR_INTERRUPTED_BY_USER):
		logger.Info("Stopped", "reason", "interrupted")
	default:
		logger.Error("Stopped", "error", err)
		code = 1
	}

	if cfg.Output.Format == config.OutputNone.Value {
		return code
	}
	if info, err := os.Stat(cfg.Output.Path); err == nil && info.Size() > 0 {
		logger.Info("Result saved", "path", cfg.Output.Path, "bytes", info.Size())
	} else {
		logger.Error("Result not saved", "path", cfg.Output.Path)
		code = 1
	}
	return code
}

func control(ctx context.Context, logger *slog.Logger) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGINT)
	defer signal.Stop(interrupt)

	select {
	case <-ctx.Done():
		logger.Debug("Control cancelled by context")
		return context.Canceled
	case <-interrupt:
		logger.Info("Cancelled by user")
		return ERR_INTERRUPTED_BY_USER
	}
}
