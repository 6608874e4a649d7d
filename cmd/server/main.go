// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/lucentchat/lucent/internal/api/themes"
	"github.com/lucentchat/lucent/internal/config"
	"github.com/lucentchat/lucent/internal/db"
	"github.com/lucentchat/lucent/internal/ratelimit"
	"github.com/lucentchat/lucent/internal/settings"
	"github.com/lucentchat/lucent/internal/theme"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	local := settings.NewFileStore(cfg.Theme.LocalStorePath)
	registry := themes.NewRegistry(database.Settings, local, log.Logger)

	limiter := ratelimit.New(nil)
	defer limiter.Close()

	refresher, err := theme.NewRefresher(registry, cfg.Theme.RefreshSchedule, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build theme refresh job")
	}

	server := newServer(cfg, registry, limiter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	refresher.Start()

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := refresher.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop theme refresh job")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
