// Package main provides the entry point for the CMS-backed site server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "site_server",
	Short: "CMS-backed page server with incremental regeneration",
	Long: `site_server serves pages authored in the Builder.io visual editor. Pages are generated on first request,
served from cache and regenerated in the background once their revalidate window has passed.

Configuration can be loaded from a JSON or YAML file using --config. Environment variables override file values.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (.json, .yaml or .yml)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
