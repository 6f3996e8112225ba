package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jonathan/pagebuilder-site/internal/builder"
	"github.com/jonathan/pagebuilder-site/internal/config"
	"github.com/jonathan/pagebuilder-site/internal/content"
	"github.com/jonathan/pagebuilder-site/internal/db"
	"github.com/jonathan/pagebuilder-site/internal/isr"
	"github.com/jonathan/pagebuilder-site/internal/pages"
)

// loadSettings resolves the effective configuration: config file, then the
// environment, then built-in defaults.
func loadSettings(path string, lookup config.LookupFunc) (config.Config, error) {
	var fileCfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		fileCfg = *loaded
	}

	cfg, err := fileCfg.ApplyEnv(lookup)
	if err != nil {
		return config.Config{}, err
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the process logger from the configured level and format.
func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// setup loads the configuration and installs the process logger.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := loadSettings(configPath, os.LookupEnv)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// newGenerator wires the content API client into a props generator.
func newGenerator(cfg config.Config) (*pages.Generator, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	client, err := builder.NewClient(cfg.Builder(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create content client: %w", err)
	}
	data, err := config.LoadPageData(cfg.PageDataFile)
	if err != nil {
		return nil, err
	}

	resolver := content.NewResolver(client)
	return pages.NewGenerator(resolver, content.NewLayout(resolver), data), nil
}

// openStore returns the store generated pages are kept in: Postgres when a
// database is configured, process memory otherwise. The returned func
// releases the store.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (isr.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("using in-memory page store")
		return isr.NewMemoryStore(), func() {}, nil
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("using postgres page store")
	return db.NewPageStore(database), database.Close, nil
}
