package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/pagebuilder-site/internal/config"
	"github.com/jonathan/pagebuilder-site/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the generated pages table",
	Long:  `Apply the embedded database migrations. Requires DATABASE_URL (or database_url in the config file).`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		if err := migrate(cmd.Context(), cfg); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return err
	},
}

var pruneOlderThan time.Duration

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete generated pages that have not been regenerated recently",
	Long:  `Delete generated pages older than --older-than. Pruned pages are generated again on their next request.`,
	Args:  cobra.NoArgs,
	RunE:  runPrune,
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 7*24*time.Hour, "Minimum age of pages to delete")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pruneCmd)
}

func connect(ctx context.Context, cfg config.Config) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable (or database_url) is required")
	}
	return db.Connect(ctx, cfg.DatabaseURL)
}

func migrate(ctx context.Context, cfg config.Config) error {
	database, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func runPrune(cmd *cobra.Command, _ []string) error {
	if pruneOlderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	database, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	n, err := db.NewPageStore(database).DeleteOlderThan(ctx, time.Now().Add(-pruneOlderThan))
	if err != nil {
		return err
	}
	logger.Info("pruned generated pages", "count", n, "older_than", pruneOlderThan)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d generated pages\n", n)
	return err
}
