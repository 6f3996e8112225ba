package content

import (
	"context"
	"fmt"

	"github.com/jonathan/pagebuilder-site/internal/builder"
)

// ContentResolver is implemented by *Resolver.
type ContentResolver interface {
	Resolve(ctx context.Context, model string, q builder.Query) (*builder.Content, error)
}

// Layout provides the global layout data merged into every page.
type Layout struct {
	resolver ContentResolver
	model    string
}

// NewLayout creates a layout provider reading the theme model.
func NewLayout(resolver ContentResolver) *Layout {
	return &Layout{resolver: resolver, model: builder.ModelTheme}
}

// LayoutProps returns the theme entry targeted at q, or nil when none is published.
func (l *Layout) LayoutProps(ctx context.Context, q builder.Query) (*builder.Content, error) {
	theme, err := l.resolver.Resolve(ctx, l.model, q)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve layout: %w", err)
	}
	return theme, nil
}
