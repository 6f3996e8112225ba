// Package preview detects visual editor requests and manages signed preview sessions.
package preview

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"
)

// Query parameters the visual editor adds when it loads a page.
const (
	ParamPreview      = "builder.preview"
	ParamFrameEditing = "builder.frameEditing"
)

// IsEditorRequest reports whether r was issued by the visual editor.
func IsEditorRequest(r *http.Request) bool {
	q := r.URL.Query()
	return q.Has(ParamPreview) || q.Has(ParamFrameEditing)
}

// Detector decides whether a request renders in preview mode.
type Detector struct {
	sessions *Sessions
}

// NewDetector creates a detector. sessions may be nil when preview sessions are
// not configured; only editor requests are then previewing.
func NewDetector(sessions *Sessions) *Detector {
	return &Detector{sessions: sessions}
}

// IsPreviewing reports whether r is an editor request or carries a valid session.
func (d *Detector) IsPreviewing(r *http.Request) bool {
	return IsEditorRequest(r) || d.HasSession(r)
}

// HasSession reports whether r carries a valid signed preview session. Only
// such requests may bypass the regeneration cache; editor query parameters
// can be added by anyone.
func (d *Detector) HasSession(r *http.Request) bool {
	if d == nil || d.sessions == nil {
		return false
	}
	_, ok := d.sessions.FromRequest(r)
	return ok
}

// CleanSlug validates the path a preview session redirects to. Only local
// absolute paths are accepted.
func CleanSlug(slug string) (string, error) {
	if slug == "" {
		return "/", nil
	}
	if !strings.HasPrefix(slug, "/") {
		return "", fmt.Errorf("slug must start with '/': %q", slug)
	}
	// Browsers drop tabs and newlines from URLs, so "/\t/host" would turn into "//host".
	if strings.ContainsFunc(slug, unicode.IsControl) {
		return "", fmt.Errorf("slug must not contain control characters: %q", slug)
	}
	if strings.HasPrefix(slug, "//") || strings.Contains(slug, `\`) {
		return "", fmt.Errorf("slug must be a local path: %q", slug)
	}
	u, err := url.Parse(slug)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", fmt.Errorf("slug must be a local path: %q", slug)
	}
	return slug, nil
}
