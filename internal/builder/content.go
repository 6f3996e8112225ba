package builder

import (
	"encoding/json"
	"fmt"
)

// Well-known content model names.
const (
	ModelPage  = "page"
	ModelTheme = "theme"
)

// Content is a published entry of a content model as returned by the content API.
type Content struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	ModelID     string `json:"modelId,omitempty"`
	Published   string `json:"published,omitempty"`
	LastUpdated int64  `json:"lastUpdated,omitempty"`
	Data        Data   `json:"data"`
}

// Data holds the fields of a content entry. Title, Description and Image are the
// SEO fields the page route reads; any other model field is kept in Fields.
type Data struct {
	Title       string
	Description string
	Image       string
	Blocks      []Block
	Fields      map[string]any
}

// knownDataFields are decoded into typed fields and never appear in Data.Fields.
var knownDataFields = []string{"title", "description", "image", "blocks"}

type dataFields struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Blocks      []Block `json:"blocks"`
}

// UnmarshalJSON decodes the typed fields and keeps the rest in Fields.
func (d *Data) UnmarshalJSON(b []byte) error {
	var typed dataFields
	if err := json.Unmarshal(b, &typed); err != nil {
		return fmt.Errorf("failed to decode content data: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("failed to decode content data: %w", err)
	}
	for _, key := range knownDataFields {
		delete(raw, key)
	}

	*d = Data{
		Title:       deref(typed.Title),
		Description: deref(typed.Description),
		Image:       deref(typed.Image),
		Blocks:      typed.Blocks,
	}
	if len(raw) > 0 {
		d.Fields = raw
	}
	return nil
}

// MarshalJSON writes Fields and the typed fields back into a single object.
func (d Data) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+len(knownDataFields))
	for k, v := range d.Fields {
		out[k] = v
	}
	if d.Title != "" {
		out["title"] = d.Title
	}
	if d.Description != "" {
		out["description"] = d.Description
	}
	if d.Image != "" {
		out["image"] = d.Image
	}
	if len(d.Blocks) > 0 {
		out["blocks"] = d.Blocks
	}
	return json.Marshal(out)
}

// Block is one node of a visual editor component tree.
type Block struct {
	Type             string                       `json:"@type,omitempty"`
	ID               string                       `json:"id,omitempty"`
	TagName          string                       `json:"tagName,omitempty"`
	LinkURL          string                       `json:"linkUrl,omitempty"`
	Class            string                       `json:"class,omitempty"`
	Properties       map[string]any               `json:"properties,omitempty"`
	ResponsiveStyles map[string]map[string]string `json:"responsiveStyles,omitempty"`
	Component        *Component                   `json:"component,omitempty"`
	Children         []Block                      `json:"children,omitempty"`
}

// Component names a registered component and carries its options.
type Component struct {
	Name    string         `json:"name"`
	Options map[string]any `json:"options,omitempty"`
}

// Option returns a string option or "" when missing or not a string.
func (c *Component) Option(key string) string {
	if c == nil || c.Options == nil {
		return ""
	}
	s, _ := c.Options[key].(string)
	return s
}

// BoolOption returns a boolean option, false when missing.
func (c *Component) BoolOption(key string) bool {
	if c == nil || c.Options == nil {
		return false
	}
	b, _ := c.Options[key].(bool)
	return b
}

// DecodeOption re-decodes a structured option into out.
func (c *Component) DecodeOption(key string, out any) error {
	if c == nil || c.Options == nil {
		return nil
	}
	v, ok := c.Options[key]
	if !ok || v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode option %s: %w", key, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to decode option %s: %w", key, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
