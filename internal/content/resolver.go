// Package content resolves URL paths to CMS content entries.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/pagebuilder-site/internal/builder"
)

// ErrUnknownModel is returned when a lookup names a model the resolver was not configured with.
var ErrUnknownModel = errors.New("unknown content model")

// ValidationError indicates an invalid lookup request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// Getter is the CMS query operation the resolver depends on.
type Getter interface {
	Get(ctx context.Context, model string, q builder.Query, opts builder.GetOptions) (*builder.Content, error)
}

// Resolver maps (model, urlPath, locale) to the published entry for it.
// It holds no state besides its client: no caching, retries or deduplication.
type Resolver struct {
	client Getter
	models map[string]bool
}

// NewResolver creates a resolver for the given models. With no models it
// accepts the page and theme models.
func NewResolver(client Getter, models ...string) *Resolver {
	if len(models) == 0 {
		models = []string{builder.ModelPage, builder.ModelTheme}
	}
	known := make(map[string]bool, len(models))
	for _, m := range models {
		known[m] = true
	}
	return &Resolver{client: client, models: known}
}

// Resolve returns the best-matching entry for model and q, or nil when none exists.
// Transport and service failures are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, model string, q builder.Query) (*builder.Content, error) {
	if !r.models[model] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	if !strings.HasPrefix(q.URLPath, "/") {
		return nil, &ValidationError{Field: "urlPath", Message: fmt.Sprintf("must start with /, got %q", q.URLPath)}
	}

	return r.client.Get(ctx, model, q, builder.GetOptions{IncludeRefs: true, CacheBust: true})
}
