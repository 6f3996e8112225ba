package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/pagebuilder-site/internal/i18n"
	"github.com/jonathan/pagebuilder-site/internal/pages"
	"github.com/spf13/cobra"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print the page route's static path declaration",
	Long:  `Print the paths generated ahead of time and the fallback mode as JSON. No path is generated ahead of time; every page is generated on its first request.`,
	Args:  cobra.NoArgs,
	RunE:  runPaths,
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}

func runPaths(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	router, err := i18n.NewRouter(cfg.Locales, cfg.DefaultLocale)
	if err != nil {
		return fmt.Errorf("invalid locale configuration: %w", err)
	}

	out, err := json.MarshalIndent(pages.ListPaths(router.Locales()), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal paths: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
