// Package main is the entry point for Ancestral Plane.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/ancestralplane/internal/config"
	"github.com/samdwyer/ancestralplane/internal/game"
	"github.com/samdwyer/ancestralplane/internal/gamedata"
	"github.com/samdwyer/ancestralplane/internal/telemetry"
	"github.com/samdwyer/ancestralplane/internal/ui"
)

func main() {
	// Load .env file for local development
	// This makes HONEYCOMB_ANCESTRALPLANE_API_KEY available
	if err := godotenv.Load(); err != nil {
		// Not fatal - env vars might be set directly
		log.Printf("Note: .env file not loaded: %v", err)
	}

	configPath := flag.String("config", envOr("ANCESTRALPLANE_CONFIG", "ancestralplane.yaml"), "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("ancestralplane: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// The terminal belongs to tcell, so logs go to a file.
	level, _ := config.ParseLevel(cfg.LogLevel)
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Telemetry.Enabled() {
		shutdown, err := telemetry.Setup(ctx, telemetry.Options{
			EndpointURL: cfg.Telemetry.Endpoint,
			Headers:     cfg.Telemetry.Headers(),
			Attributes:  []attribute.KeyValue{attribute.Int64("game.seed", cfg.Seed)},
		})
		if err != nil {
			// Continue without telemetry - game still works
			slog.Warn("telemetry setup failed", "error", err)
		} else {
			defer func() {
				if err := shutdown(context.WithoutCancel(ctx)); err != nil {
					slog.Error("telemetry shutdown", "error", err)
				}
			}()
		}
	}

	catalog, err := loadCatalog(cfg.DataDir)
	if err != nil {
		return err
	}

	screen, err := ui.NewScreen()
	if err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}

	g, err := game.New(cfg, catalog, screen)
	if err != nil {
		screen.Close()
		return fmt.Errorf("initializing game: %w", err)
	}
	slog.Info("game started", "session", g.Session().ID, "seed", cfg.Seed)

	if err := g.Run(ctx); err != nil {
		return fmt.Errorf("game error: %w", err)
	}
	slog.Info("game finished", "state", g.State().String(), "balance", g.Session().Balance())
	return nil
}

// loadCatalog reads data files from dir, or the embedded copy when dir is
// empty.
func loadCatalog(dir string) (*gamedata.Catalog, error) {
	if dir == "" {
		return gamedata.LoadCatalog()
	}
	return gamedata.LoadCatalogFS(os.DirFS(dir))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
