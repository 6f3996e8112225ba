// Package pages implements the catch-all page route: it derives the lookup path
// from request segments, declares the route's static paths and produces page props.
package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/pagebuilder-site/internal/builder"
	"golang.org/x/sync/errgroup"
)

// Revalidate is how long generated props are served before they are regenerated.
const Revalidate = 5 * time.Second

// StaticPaths is the route's build-time path declaration.
type StaticPaths struct {
	Paths    []string `json:"paths"`
	Fallback bool     `json:"fallback"`
}

// ListPaths declares no pre-built paths and enables on-demand generation for
// every path, whatever locales are configured.
func ListPaths(_ []string) StaticPaths {
	return StaticPaths{Paths: []string{}, Fallback: true}
}

// LookupPath joins request segments into the CMS lookup path.
func LookupPath(segments []string) string {
	return "/" + strings.Join(segments, "/")
}

// Params identifies a page request.
type Params struct {
	Segments []string
	Locale   string
}

// Props are the render inputs for one page.
type Props struct {
	Page   *builder.Content `json:"page"`
	Locale string           `json:"locale,omitempty"`
	Theme  *builder.Content `json:"theme"`
	Data   map[string]any   `json:"data,omitempty"`
}

// StaticProps is the result of one generation.
type StaticProps struct {
	Props      Props
	Revalidate time.Duration
}

// Resolver looks up content entries.
type Resolver interface {
	Resolve(ctx context.Context, model string, q builder.Query) (*builder.Content, error)
}

// LayoutProvider supplies the layout data merged into every page.
type LayoutProvider interface {
	LayoutProps(ctx context.Context, q builder.Query) (*builder.Content, error)
}

// Generator produces props for the page route.
type Generator struct {
	resolver Resolver
	layout   LayoutProvider
	data     map[string]any
}

// NewGenerator creates a generator. data is static page data handed to every
// render; it may be nil.
func NewGenerator(resolver Resolver, layout LayoutProvider, data map[string]any) *Generator {
	return &Generator{resolver: resolver, layout: layout, data: data}
}

// GetStaticProps resolves the page and the layout data concurrently.
// A missing page is not an error: Props.Page is nil.
func (g *Generator) GetStaticProps(ctx context.Context, params Params) (*StaticProps, error) {
	q := builder.Query{URLPath: LookupPath(params.Segments), Locale: params.Locale}

	var page, theme *builder.Content
	group, gCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		page, err = g.resolver.Resolve(gCtx, builder.ModelPage, q)
		if err != nil {
			return fmt.Errorf("failed to resolve page %s: %w", q.URLPath, err)
		}
		return nil
	})
	if g.layout != nil {
		group.Go(func() error {
			var err error
			theme, err = g.layout.LayoutProps(gCtx, q)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return &StaticProps{
		Props: Props{
			Page:   page,
			Locale: params.Locale,
			Theme:  theme,
			Data:   g.data,
		},
		Revalidate: Revalidate,
	}, nil
}
