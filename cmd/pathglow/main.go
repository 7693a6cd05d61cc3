package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/coreman2200/pathglow/internal/app"
	"github.com/coreman2200/pathglow/internal/config"
)

var (
	configPath = "pathglow.yaml"
	verbose    = false
	driver     = ""
	addr       = ""
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "configuration file (.yaml, .yml or .toml)")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "debug logging")
	pflag.StringVar(&driver, "driver", driver, "override the configured driver: ws281x | spi | serial | sim")
	pflag.StringVar(&addr, "addr", addr, "override the preview listen address")
}

func main() {
	pflag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("pathglow failed")
	}
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if driver != "" {
		cfg.Driver = driver
	}
	if addr != "" {
		cfg.Preview.Addr = addr
	}

	core, err := app.InitCore(cfg, log.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := core.Close(); err != nil {
			log.Warn().Err(err).Msg("close sinks")
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().
		Str("driver", cfg.Driver).
		Int("strips", len(core.Strips)).
		Str("state", cfg.State.Source).
		Msg("pathglow starting")

	if err := core.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("shutting down")
	return nil
}
