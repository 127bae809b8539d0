package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/mickamy/elucify/config"
	"github.com/mickamy/elucify/example/basic/app"
	"github.com/mickamy/elucify/logging"
	"github.com/mickamy/elucify/telemetry"
)

func main() {
	path := flag.String("c", "", "path to the TOML configuration file (default ./elucify.toml if present)")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "elucify-example", cfg.OTel)
	if err != nil {
		log.Error().Err(err).Msg("Tracing disabled")
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Msg("Failed to flush traces")
		}
	}()

	srv, err := app.Rocket(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build server")
	}
	if err := srv.Launch(ctx); err != nil {
		log.Error().Err(err).Msg("Server stopped")
		stop()
		os.Exit(1) //nolint:gocritic // deferred flush skipped on failure
	}
	log.Info().Msg("Server exiting")
}
