package isr

import (
	"context"

	"github.com/jonathan/pagebuilder-site/internal/i18n"
	"github.com/jonathan/pagebuilder-site/internal/pages"
)

// PropsGenerator produces page props. *pages.Generator implements it.
type PropsGenerator interface {
	GetStaticProps(ctx context.Context, params pages.Params) (*pages.StaticProps, error)
}

// FromGenerator adapts a props generator to the cache's GenerateFunc. The key
// path is split back into the segments the page route received.
func FromGenerator(g PropsGenerator) GenerateFunc {
	return func(ctx context.Context, key Key) (*pages.StaticProps, error) {
		return g.GetStaticProps(ctx, pages.Params{
			Segments: i18n.Segments(key.Path),
			Locale:   key.Locale,
		})
	}
}
