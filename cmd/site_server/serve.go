package main

import (
	"context"
	"fmt"

	"github.com/jonathan/pagebuilder-site/internal/config"
	"github.com/jonathan/pagebuilder-site/internal/i18n"
	"github.com/jonathan/pagebuilder-site/internal/isr"
	"github.com/jonathan/pagebuilder-site/internal/preview"
	"github.com/jonathan/pagebuilder-site/internal/render"
	"github.com/jonathan/pagebuilder-site/internal/server"
	"github.com/jonathan/pagebuilder-site/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var (
	servePort          int
	serveSecureCookies bool
	serveMigrate       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the page server",
	Long: `Start an HTTP server that renders CMS pages through the catch-all page route.

Preview sessions are enabled when PREVIEW_SECRET_HASH and PREVIEW_TOKEN_SECRET are set.
On-demand revalidation is enabled when a revalidate token is configured.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config and PORT)")
	serveCmd.Flags().BoolVar(&serveSecureCookies, "secure-cookies", false, "Mark preview cookies Secure (required when served over HTTPS inside the editor iframe)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	router, err := i18n.NewRouter(cfg.Locales, cfg.DefaultLocale)
	if err != nil {
		return fmt.Errorf("invalid locale configuration: %w", err)
	}

	ctx := context.Background()
	if serveMigrate {
		if err := migrate(ctx, cfg); err != nil {
			return err
		}
	}
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	cache := isr.New(store, isr.FromGenerator(generator), isr.Options{
		GenerateTimeout: cfg.GenerateTimeout(),
		Logger:          logger.With("component", "isr"),
	})

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	var sessions *preview.Sessions
	if config.PreviewConfigured() {
		previewCfg, err := config.NewPreviewConfig()
		if err != nil {
			return fmt.Errorf("invalid preview configuration: %w", err)
		}
		sessions = preview.NewSessions(previewCfg)
	} else {
		logger.Info("preview sessions disabled; editor requests are still previewed")
	}

	limiter := ratelimit.NewLimiter(ratelimit.LoadConfig())

	srv, err := server.New(server.Config{
		Port:            cfg.Port,
		RevalidateToken: cfg.RevalidateToken,
		LocaleDetection: cfg.LocaleDetection,
		SecureCookies:   serveSecureCookies,
	}, server.Deps{
		Cache:     cache,
		Generator: generator,
		Router:    router,
		Renderer:  renderer,
		Sessions:  sessions,
		Limiter:   limiter,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
