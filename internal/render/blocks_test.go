package render

import (
	"encoding/json"
	"testing"

	"github.com/jonathan/pagebuilder-site/internal/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBlocks(t *testing.T, raw string) []builder.Block {
	t.Helper()
	var blocks []builder.Block
	require.NoError(t, json.Unmarshal([]byte(raw), &blocks))
	return blocks
}

func TestBlockRenderer_Text(t *testing.T) {
	blocks := decodeBlocks(t, `[{
		"@type": "@builder.io/sdk:Element",
		"id": "builder-1",
		"component": {"name": "Text", "options": {"text": "<p>Hello</p>"}},
		"responsiveStyles": {"large": {"marginTop": "20px", "display": "flex"}}
	}]`)

	out, err := NewBlockRenderer().Render(blocks)
	require.NoError(t, err)
	assert.Equal(t,
		`<div class="builder-block builder-1" builder-id="builder-1" style="display: flex; margin-top: 20px">`+
			`<div class="builder-text"><p>Hello</p></div></div>`,
		out)
}

func TestBlockRenderer_ImageAndButton(t *testing.T) {
	blocks := decodeBlocks(t, `[
		{"id": "img", "component": {"name": "Image", "options": {"image": "https://cdn.example.com/a.png", "altText": "A \"quoted\" alt"}}},
		{"id": "btn", "component": {"name": "Button", "options": {"text": "Go <now>", "link": "/signup", "openLinkInNewTab": true}}},
		{"id": "btn2", "component": {"name": "Button", "options": {"text": "No link"}}}
	]`)

	out, err := NewBlockRenderer().Render(blocks)
	require.NoError(t, err)
	assert.Contains(t, out, `<img src="https://cdn.example.com/a.png" alt="A &#34;quoted&#34; alt" loading="lazy" class="builder-image">`)
	assert.Contains(t, out, `<a href="/signup" target="_blank" rel="noopener" class="builder-button">Go &lt;now&gt;</a>`)
	assert.Contains(t, out, `<span class="builder-button">No link</span>`)
}

func TestBlockRenderer_SectionColumnsAndChildren(t *testing.T) {
	blocks := decodeBlocks(t, `[{
		"id": "sec",
		"component": {"name": "Core:Section", "options": {"maxWidth": 1200}},
		"children": [{
			"id": "cols",
			"component": {"name": "Columns", "options": {"columns": [
				{"blocks": [{"id": "left", "tagName": "span"}]},
				{"blocks": [{"id": "right", "linkUrl": "/right"}], "width": 25}
			]}}
		}]
	}]`)

	out, err := NewBlockRenderer().Render(blocks)
	require.NoError(t, err)
	assert.Contains(t, out, `<section class="builder-block sec"`)
	assert.Contains(t, out, `style="max-width: 1200px; margin-left: auto; margin-right: auto"`)
	assert.Contains(t, out, `<div class="builder-column" style="width: 50%"><span class="builder-block left" builder-id="left"></span></div>`)
	assert.Contains(t, out, `<div class="builder-column" style="width: 25%"><a class="builder-block right" builder-id="right" href="/right"></a></div>`)
	assert.Contains(t, out, `</section>`)
}

func TestBlockRenderer_Symbol(t *testing.T) {
	blocks := decodeBlocks(t, `[{
		"id": "sym",
		"component": {"name": "Symbol", "options": {"symbol": {
			"model": "symbol",
			"entry": "abc",
			"content": {"id": "abc", "data": {"blocks": [
				{"id": "inner", "component": {"name": "Text", "options": {"text": "shared"}}}
			]}}
		}}}
	}]`)

	out, err := NewBlockRenderer().Render(blocks)
	require.NoError(t, err)
	assert.Contains(t, out, `<div class="builder-symbol" data-symbol-entry="abc">`)
	assert.Contains(t, out, `<div class="builder-text">shared</div>`)
}

func TestBlockRenderer_Markdown(t *testing.T) {
	blocks := decodeBlocks(t, `[{
		"id": "md",
		"component": {"name": "Markdown", "options": {"markdown": "# Title\n\nSome *text*.\n\n<script>alert(1)</script>"}}
	}]`)

	out, err := NewBlockRenderer().Render(blocks)
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="title">Title</h1>`)
	assert.Contains(t, out, `<em>text</em>`)
	assert.NotContains(t, out, `<script>`)
}

func TestBlockRenderer_CustomCode(t *testing.T) {
	blocks := decodeBlocks(t, `[{"id": "code", "component": {"name": "Custom Code", "options": {"code": "<iframe src=\"https://example.com\"></iframe>"}}}]`)

	out, err := NewBlockRenderer().Render(blocks)
	require.NoError(t, err)
	assert.Contains(t, out, `<iframe src="https://example.com"></iframe>`)
}

func TestBlockRenderer_UnknownComponentRendersChildren(t *testing.T) {
	blocks := decodeBlocks(t, `[{
		"id": "custom",
		"component": {"name": "Hero Carousel"},
		"children": [{"id": "child", "component": {"name": "Text", "options": {"text": "kept"}}}]
	}]`)

	out, err := NewBlockRenderer().Render(blocks)
	require.NoError(t, err)
	assert.Contains(t, out, `data-component="Hero Carousel"`)
	assert.Contains(t, out, `kept`)
}

func TestBlockRenderer_Properties(t *testing.T) {
	blocks := decodeBlocks(t, `[{
		"id": "p",
		"tagName": "script",
		"properties": {"aria-label": "x\"y", "onclick": "alert(1)", "data-n": 1, "bad attr": "v"}
	}]`)

	out, err := NewBlockRenderer().Render(blocks)
	require.NoError(t, err)
	assert.Equal(t, `<div class="builder-block p" builder-id="p" aria-label="x&#34;y"></div>`, out)
}

func TestBlockRenderer_DepthLimit(t *testing.T) {
	root := builder.Block{ID: "root"}
	current := &root
	for i := 0; i <= maxDepth+1; i++ {
		current.Children = []builder.Block{{ID: "n"}}
		current = &current.Children[0]
	}

	_, err := NewBlockRenderer().Render([]builder.Block{root})
	var renderErr *Error
	require.ErrorAs(t, err, &renderErr)
}

func TestKebab(t *testing.T) {
	assert.Equal(t, "margin-top", kebab("marginTop"))
	assert.Equal(t, "display", kebab("display"))
	assert.Equal(t, "webkit-box", kebab("WebkitBox"))
}

func TestBlockRenderer_HeadOnlyTagsBecomeDivs(t *testing.T) {
	for _, tag := range []string{"title", "meta", "link", "base", "noscript", "head", "body", "template", "textarea"} {
		t.Run(tag, func(t *testing.T) {
			blocks := []builder.Block{{ID: "h", TagName: tag}}

			out, err := NewBlockRenderer().Render(blocks)
			require.NoError(t, err)
			assert.Equal(t, `<div class="builder-block h" builder-id="h"></div>`, out)
		})
	}
}

func TestBlockRenderer_HeadTagBlockKeepsFollowingContent(t *testing.T) {
	blocks := decodeBlocks(t, `[
		{"id": "t", "tagName": "title", "children": [
			{"id": "inner", "component": {"name": "Text", "options": {"text": "<p>inside</p>"}}}
		]},
		{"id": "after", "component": {"name": "Text", "options": {"text": "<p>after</p>"}}}
	]`)

	body, err := NewBlockRenderer().Render(blocks)
	require.NoError(t, err)
	out, err := ApplyLinkRule(body)
	require.NoError(t, err)

	assert.Contains(t, out, `builder-id="t"`)
	assert.Contains(t, out, "<p>inside</p>")
	assert.Contains(t, out, "<p>after</p>")
	assert.NotContains(t, out, "<title")
}
