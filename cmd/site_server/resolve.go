package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/pagebuilder-site/internal/i18n"
	"github.com/jonathan/pagebuilder-site/internal/observability"
	"github.com/jonathan/pagebuilder-site/internal/pages"
	"github.com/jonathan/pagebuilder-site/internal/render"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [path]",
	Short: "Generate the props for one page and print them",
	Long: `Fetch the page published for a path, the same way the page route generates it, and print the props as JSON.

The path may carry a locale prefix (/fr/about); --locale overrides it. Use --html to print the rendered document instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

// resolveOutput mirrors the data endpoint's response.
type resolveOutput struct {
	Props      pages.Props `json:"props"`
	Revalidate int         `json:"revalidate"`
	State      string      `json:"state"`
}

var (
	resolveLocale  string
	resolvePreview bool
	resolveHTML    bool
	resolveVerbose bool
)

func init() {
	resolveCmd.Flags().StringVarP(&resolveLocale, "locale", "l", "", "Locale to resolve (defaults to the path prefix or the default locale)")
	resolveCmd.Flags().BoolVar(&resolvePreview, "preview", false, "Render as a preview request")
	resolveCmd.Flags().BoolVar(&resolveHTML, "html", false, "Print the rendered HTML instead of the props")
	resolveCmd.Flags().BoolVarP(&resolveVerbose, "verbose", "v", false, "Print a summary of the page to stderr")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	path := "/"
	if len(args) == 1 {
		path = args[0]
	}

	router, err := i18n.NewRouter(cfg.Locales, cfg.DefaultLocale)
	if err != nil {
		return fmt.Errorf("invalid locale configuration: %w", err)
	}
	locale, segments, _ := router.Split(path)
	if resolveLocale != "" {
		name, ok := router.Lookup(resolveLocale)
		if !ok {
			return fmt.Errorf("unknown locale %q (configured: %v)", resolveLocale, router.Locales())
		}
		locale = name
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GenerateTimeout())
	defer cancel()

	props, err := generator.GetStaticProps(ctx, pages.Params{Segments: segments, Locale: locale})
	if err != nil {
		return err
	}

	view := render.View{
		State:      render.Select(render.Input{Page: props.Props.Page, IsPreviewing: resolvePreview}),
		Props:      props.Props,
		Previewing: resolvePreview,
	}

	if resolveVerbose {
		printer := observability.NewPrinter(cmd.ErrOrStderr())
		printer.PrintPage(pages.LookupPath(segments), &props.Props, view.State)
		if page := props.Props.Page; page != nil {
			printer.PrintSEO(render.SEOFor(page, locale))
			printer.PrintBlocks(page.Data.Blocks)
		}
	}

	if resolveHTML {
		renderer, err := render.New()
		if err != nil {
			return fmt.Errorf("failed to load templates: %w", err)
		}
		res, err := renderer.Render(view)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(res.HTML)
		return err
	}

	out, err := json.MarshalIndent(resolveOutput{
		Props:      props.Props,
		Revalidate: int(props.Revalidate.Seconds()),
		State:      view.State.String(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal props: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
