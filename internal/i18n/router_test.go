package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRouter_Disabled(t *testing.T) {
	r, err := NewRouter(nil, "")
	require.NoError(t, err)
	assert.False(t, r.Enabled())

	locale, segments, hasPrefix := r.Split("/fr/about")
	assert.Equal(t, "", locale)
	assert.Equal(t, []string{"fr", "about"}, segments)
	assert.False(t, hasPrefix)
	assert.Equal(t, "", r.Detect("fr-FR"))
}

func TestNewRouter_Errors(t *testing.T) {
	tests := []struct {
		name          string
		locales       []string
		defaultLocale string
	}{
		{"default without list", nil, "en"},
		{"invalid locale", []string{"en", "not a locale!"}, ""},
		{"duplicate", []string{"en-US", "en-us"}, ""},
		{"default not listed", []string{"en", "fr"}, "de"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRouter(tt.locales, tt.defaultLocale)
			assert.Error(t, err)
		})
	}
}

func TestRouter_Split(t *testing.T) {
	r, err := NewRouter([]string{"en-US", "fr", "de"}, "en-US")
	require.NoError(t, err)

	tests := []struct {
		path       string
		locale     string
		segments   []string
		prefixUsed bool
	}{
		{"/", "en-US", []string{}, false},
		{"/about", "en-US", []string{"about"}, false},
		{"/fr", "fr", []string{}, true},
		{"/FR/about/team", "fr", []string{"about", "team"}, true},
		{"//de//contact/", "de", []string{"contact"}, true},
		{"/french/about", "en-US", []string{"french", "about"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			locale, segments, hasPrefix := r.Split(tt.path)
			assert.Equal(t, tt.locale, locale)
			assert.Equal(t, tt.segments, segments)
			assert.Equal(t, tt.prefixUsed, hasPrefix)
		})
	}
}

func TestRouter_DefaultsToFirstLocale(t *testing.T) {
	r, err := NewRouter([]string{"nl", "en"}, "")
	require.NoError(t, err)
	assert.Equal(t, "nl", r.DefaultLocale())
	assert.Equal(t, []string{"nl", "en"}, r.Locales())
}

func TestRouter_Prefix(t *testing.T) {
	r, err := NewRouter([]string{"en", "fr"}, "en")
	require.NoError(t, err)

	assert.Equal(t, "", r.Prefix("en"))
	assert.Equal(t, "", r.Prefix(""))
	assert.Equal(t, "/fr", r.Prefix("fr"))
}

func TestRouter_Detect(t *testing.T) {
	r, err := NewRouter([]string{"en", "fr", "de"}, "en")
	require.NoError(t, err)

	assert.Equal(t, "fr", r.Detect("fr-CA,fr;q=0.9,en;q=0.5"))
	assert.Equal(t, "de", r.Detect("de-DE"))
	assert.Equal(t, "en", r.Detect(""))
	assert.Equal(t, "en", r.Detect("ja-JP"))
}

func TestSegments(t *testing.T) {
	assert.Equal(t, []string{}, Segments(""))
	assert.Equal(t, []string{}, Segments("/"))
	assert.Equal(t, []string{"a", "b"}, Segments("/a//b/"))
}

func TestRouter_Lookup(t *testing.T) {
	r, err := NewRouter([]string{"en-US", "fr"}, "")
	require.NoError(t, err)

	name, ok := r.Lookup("EN-us")
	assert.True(t, ok)
	assert.Equal(t, "en-US", name)

	_, ok = r.Lookup("de")
	assert.False(t, ok)
}
