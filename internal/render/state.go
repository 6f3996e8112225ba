// Package render turns generated page props into HTML.
//
// The render state is decided once per request by Select and every consumer
// switches over it exhaustively.
package render

import (
	"fmt"

	"github.com/jonathan/pagebuilder-site/internal/builder"
)

// State is what a page render shows.
type State int

const (
	// StateFallback means no generated props exist yet for the path.
	StateFallback State = iota
	// StateNotFound means the CMS has no page for the path.
	StateNotFound
	// StatePreviewEmpty means the CMS has no page but the visual editor will supply one.
	StatePreviewEmpty
	// StateResolved means a page document exists.
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateFallback:
		return "fallback"
	case StateNotFound:
		return "not_found"
	case StatePreviewEmpty:
		return "preview_empty"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Input is everything Select looks at.
type Input struct {
	IsFallback   bool
	Page         *builder.Content
	IsPreviewing bool
}

// Select picks the render state. Fallback wins over everything else; a missing
// page is only a 404 outside preview mode.
func Select(in Input) State {
	switch {
	case in.IsFallback:
		return StateFallback
	case in.Page == nil && !in.IsPreviewing:
		return StateNotFound
	case in.Page == nil:
		return StatePreviewEmpty
	default:
		return StateResolved
	}
}
