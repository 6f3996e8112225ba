// Package i18n maps URL paths to locales the way locale-prefixed routing works:
// the default locale is served unprefixed, every other locale under /<locale>/.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Router splits request paths into a locale and path segments.
type Router struct {
	names         []string
	defaultLocale string
	matcher       language.Matcher
}

// NewRouter validates the configured locales. With no locales the router is
// disabled and every path resolves to the empty locale.
func NewRouter(locales []string, defaultLocale string) (*Router, error) {
	if len(locales) == 0 {
		if defaultLocale != "" {
			return nil, fmt.Errorf("default locale %q set without a locale list", defaultLocale)
		}
		return &Router{}, nil
	}

	names := make([]string, 0, len(locales))
	tags := make([]language.Tag, 0, len(locales))
	seen := make(map[string]bool, len(locales))
	for _, l := range locales {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", l, err)
		}
		name := tag.String()
		if seen[strings.ToLower(name)] {
			return nil, fmt.Errorf("duplicate locale %q", l)
		}
		seen[strings.ToLower(name)] = true
		names = append(names, name)
		tags = append(tags, tag)
	}

	if defaultLocale == "" {
		defaultLocale = names[0]
	}
	defaultTag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("invalid default locale %q: %w", defaultLocale, err)
	}
	if !seen[strings.ToLower(defaultTag.String())] {
		return nil, fmt.Errorf("default locale %q is not in the locale list", defaultLocale)
	}

	return &Router{
		names:         names,
		defaultLocale: defaultTag.String(),
		matcher:       language.NewMatcher(tags),
	}, nil
}

// Enabled reports whether any locales are configured.
func (r *Router) Enabled() bool {
	return len(r.names) > 0
}

// Locales returns the configured locales in configuration order.
func (r *Router) Locales() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// DefaultLocale returns the locale served without a prefix.
func (r *Router) DefaultLocale() string {
	return r.defaultLocale
}

// Split returns the locale of path and its remaining non-empty segments.
// hasPrefix reports whether the locale came from the first segment.
func (r *Router) Split(path string) (locale string, segments []string, hasPrefix bool) {
	segments = Segments(path)
	if !r.Enabled() {
		return "", segments, false
	}
	if len(segments) > 0 {
		if name, ok := r.Lookup(segments[0]); ok {
			return name, segments[1:], true
		}
	}
	return r.defaultLocale, segments, false
}

// Prefix returns the URL prefix for locale: empty for the default locale.
func (r *Router) Prefix(locale string) string {
	if !r.Enabled() || locale == "" || strings.EqualFold(locale, r.defaultLocale) {
		return ""
	}
	return "/" + locale
}

// Detect picks the best configured locale for an Accept-Language header,
// falling back to the default locale.
func (r *Router) Detect(acceptLanguage string) string {
	if !r.Enabled() {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return r.defaultLocale
	}
	_, idx, confidence := r.matcher.Match(tags...)
	if confidence == language.No || idx < 0 || idx >= len(r.names) {
		return r.defaultLocale
	}
	return r.names[idx]
}

// Lookup returns the configured spelling of locale, matched case-insensitively.
func (r *Router) Lookup(segment string) (string, bool) {
	for _, name := range r.names {
		if strings.EqualFold(name, segment) {
			return name, true
		}
	}
	return "", false
}

// Segments splits a URL path on "/" and drops empty segments.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
