package render

import (
	"bytes"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/pagebuilder-site/internal/builder"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Component names rendered server side.
const (
	ComponentText       = "Text"
	ComponentImage      = "Image"
	ComponentButton     = "Button"
	ComponentSection    = "Core:Section"
	ComponentBox        = "Box"
	ComponentCoreBox    = "Core:Box"
	ComponentColumns    = "Columns"
	ComponentSymbol     = "Symbol"
	ComponentCustomCode = "Custom Code"
	ComponentEmbed      = "Embed"
	ComponentMarkdown   = "Markdown"
)

// breakpoint whose responsive styles are inlined.
const styleBreakpoint = "large"

// BlockRenderer renders visual editor component trees to HTML.
type BlockRenderer struct {
	md goldmark.Markdown
}

// NewBlockRenderer creates a block renderer.
func NewBlockRenderer() *BlockRenderer {
	return &BlockRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// Render renders blocks in order.
func (r *BlockRenderer) Render(blocks []builder.Block) (string, error) {
	var sb strings.Builder
	for i := range blocks {
		if err := r.renderBlock(&sb, &blocks[i], 0); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// maxDepth stops runaway trees such as a symbol that includes itself.
const maxDepth = 64

func (r *BlockRenderer) renderBlock(sb *strings.Builder, b *builder.Block, depth int) error {
	if depth > maxDepth {
		return &Error{Message: fmt.Sprintf("block tree deeper than %d levels at block %q", maxDepth, b.ID)}
	}

	tag := b.TagName
	var inner strings.Builder
	var attrs []string
	childrenRendered := false

	switch name := componentName(b); name {
	case "":
	case ComponentText:
		inner.WriteString(`<div class="builder-text">`)
		inner.WriteString(b.Component.Option("text"))
		inner.WriteString(`</div>`)
	case ComponentImage:
		writeImage(&inner, b.Component)
	case ComponentButton:
		writeButton(&inner, b.Component)
	case ComponentSection:
		if tag == "" {
			tag = "section"
		}
		inner.WriteString(`<div class="builder-section-inner"`)
		if maxWidth := numberOption(b.Component, "maxWidth"); maxWidth > 0 {
			fmt.Fprintf(&inner, ` style="max-width: %spx; margin-left: auto; margin-right: auto"`, formatNumber(maxWidth))
		}
		inner.WriteString(">")
		if err := r.renderChildren(&inner, b.Children, depth); err != nil {
			return err
		}
		inner.WriteString("</div>")
		childrenRendered = true
	case ComponentBox, ComponentCoreBox:
	case ComponentColumns:
		if err := r.writeColumns(&inner, b.Component, depth); err != nil {
			return err
		}
	case ComponentSymbol:
		if err := r.writeSymbol(&inner, b.Component, depth); err != nil {
			return err
		}
	case ComponentCustomCode, ComponentEmbed:
		code := b.Component.Option("code")
		if code == "" {
			code = b.Component.Option("content")
		}
		inner.WriteString(code)
	case ComponentMarkdown:
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(b.Component.Option("markdown")), &buf); err != nil {
			return &Error{Message: fmt.Sprintf("failed to render markdown in block %q", b.ID), Cause: err}
		}
		inner.WriteString(`<div class="builder-markdown">`)
		inner.Write(buf.Bytes())
		inner.WriteString(`</div>`)
	default:
		attrs = append(attrs, attr("data-component", name))
	}

	if tag == "" {
		tag = "div"
		if b.LinkURL != "" {
			tag = "a"
		}
	}
	tag = sanitizeTag(tag)

	classes := "builder-block"
	if b.ID != "" {
		classes += " " + b.ID
	}
	if b.Class != "" {
		classes += " " + b.Class
	}

	sb.WriteString("<" + tag)
	sb.WriteString(attr("class", classes))
	if b.ID != "" {
		sb.WriteString(attr("builder-id", b.ID))
	}
	if b.LinkURL != "" && tag == "a" {
		sb.WriteString(attr("href", b.LinkURL))
	}
	for _, a := range propertyAttrs(b.Properties) {
		sb.WriteString(a)
	}
	for _, a := range attrs {
		sb.WriteString(a)
	}
	if style := inlineStyle(b.ResponsiveStyles[styleBreakpoint]); style != "" {
		sb.WriteString(attr("style", style))
	}
	sb.WriteString(">")
	sb.WriteString(inner.String())
	if !childrenRendered {
		if err := r.renderChildren(sb, b.Children, depth); err != nil {
			return err
		}
	}
	sb.WriteString("</" + tag + ">")
	return nil
}

func (r *BlockRenderer) renderChildren(sb *strings.Builder, children []builder.Block, depth int) error {
	for i := range children {
		if err := r.renderBlock(sb, &children[i], depth+1); err != nil {
			return err
		}
	}
	return nil
}

type column struct {
	Blocks []builder.Block `json:"blocks"`
	Width  float64         `json:"width"`
}

func (r *BlockRenderer) writeColumns(sb *strings.Builder, c *builder.Component, depth int) error {
	var columns []column
	if err := c.DecodeOption("columns", &columns); err != nil {
		return &Error{Message: "invalid columns block", Cause: err}
	}

	sb.WriteString(`<div class="builder-columns">`)
	for _, col := range columns {
		width := col.Width
		if width <= 0 && len(columns) > 0 {
			width = 100 / float64(len(columns))
		}
		fmt.Fprintf(sb, `<div class="builder-column" style="width: %s%%">`, formatNumber(width))
		if err := r.renderChildren(sb, col.Blocks, depth); err != nil {
			return err
		}
		sb.WriteString(`</div>`)
	}
	sb.WriteString(`</div>`)
	return nil
}

type symbolOption struct {
	Model   string           `json:"model"`
	Entry   string           `json:"entry"`
	Content *builder.Content `json:"content"`
}

// writeSymbol renders a symbol whose content was inlined by includeRefs.
func (r *BlockRenderer) writeSymbol(sb *strings.Builder, c *builder.Component, depth int) error {
	var sym symbolOption
	if err := c.DecodeOption("symbol", &sym); err != nil {
		return &Error{Message: "invalid symbol block", Cause: err}
	}
	if sym.Content == nil {
		return nil
	}
	sb.WriteString(`<div class="builder-symbol"`)
	if sym.Entry != "" {
		sb.WriteString(attr("data-symbol-entry", sym.Entry))
	}
	sb.WriteString(">")
	if err := r.renderChildren(sb, sym.Content.Data.Blocks, depth); err != nil {
		return err
	}
	sb.WriteString(`</div>`)
	return nil
}

func writeImage(sb *strings.Builder, c *builder.Component) {
	src := c.Option("image")
	if src == "" {
		return
	}
	sb.WriteString("<img")
	sb.WriteString(attr("src", src))
	sb.WriteString(attr("alt", c.Option("altText")))
	sb.WriteString(attr("loading", "lazy"))
	sb.WriteString(attr("class", "builder-image"))
	sb.WriteString(">")
}

func writeButton(sb *strings.Builder, c *builder.Component) {
	text := html.EscapeString(c.Option("text"))
	link := c.Option("link")
	if link == "" {
		sb.WriteString(`<span class="builder-button">` + text + `</span>`)
		return
	}
	sb.WriteString("<a")
	sb.WriteString(attr("href", link))
	if c.BoolOption("openLinkInNewTab") {
		sb.WriteString(attr("target", "_blank"))
		sb.WriteString(attr("rel", "noopener"))
	}
	sb.WriteString(attr("class", "builder-button"))
	sb.WriteString(">" + text + "</a>")
}

func componentName(b *builder.Block) string {
	if b.Component == nil {
		return ""
	}
	return b.Component.Name
}

func numberOption(c *builder.Component, key string) float64 {
	if c == nil || c.Options == nil {
		return 0
	}
	switch v := c.Options[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// propertyAttrs turns string block properties into attributes, sorted by name.
// Event handler attributes are dropped.
func propertyAttrs(props map[string]any) []string {
	keys := make([]string, 0, len(props))
	for k, v := range props {
		if _, ok := v.(string); !ok {
			continue
		}
		if !validAttrName(k) || strings.HasPrefix(strings.ToLower(k), "on") {
			continue
		}
		switch k {
		case "class", "style", "href":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, attr(k, props[k].(string)))
	}
	return out
}

// inlineStyle writes camelCase style properties as a CSS declaration list.
func inlineStyle(styles map[string]string) string {
	if len(styles) == 0 {
		return ""
	}
	keys := make([]string, 0, len(styles))
	for k := range styles {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, kebab(k)+": "+styles[k])
	}
	return strings.Join(parts, "; ")
}

func kebab(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r + ('a' - 'A'))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func attr(name, value string) string {
	return " " + name + `="` + html.EscapeString(value) + `"`
}

func validAttrName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '-' || r == '_' || r == ':' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

func sanitizeTag(tag string) string {
	tag = strings.ToLower(tag)
	for _, r := range tag {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return "div"
		}
	}
	switch tag {
	case "script", "style", "iframe", "object", "embed", "template",
		"html", "head", "body", "title", "meta", "link", "base", "noscript",
		"textarea", "xmp", "plaintext", "frameset", "frame":
		return "div"
	}
	return tag
}
