package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/jonathan/pagebuilder-site/internal/pages"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// FallbackRefreshSeconds is how often the loading placeholder reloads itself.
const FallbackRefreshSeconds = 1

// View is one page render request.
type View struct {
	State      State
	Props      pages.Props
	Previewing bool
}

// Result is a rendered page.
type Result struct {
	Status int
	HTML   []byte
}

// Renderer renders page views with the embedded templates.
type Renderer struct {
	tmpl   *template.Template
	blocks *BlockRenderer
}

// New parses the page templates.
func New() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, &Error{Message: "failed to parse page templates", Cause: err}
	}
	return &Renderer{tmpl: tmpl, blocks: NewBlockRenderer()}, nil
}

type pageData struct {
	Lang      string
	State     string
	SEO       *SEO
	Refresh   int
	NoIndex   bool
	Body      template.HTML
	StateJSON template.JS
}

// Render renders v according to its state.
func (r *Renderer) Render(v View) (*Result, error) {
	data := pageData{
		Lang:  lang(v.Props.Locale),
		State: v.State.String(),
	}
	status := http.StatusOK

	switch v.State {
	case StateFallback:
		data.Refresh = FallbackRefreshSeconds
		data.NoIndex = true
		data.Body = "<h1>Loading...</h1>"
	case StateNotFound:
		status = http.StatusNotFound
		data.NoIndex = true
		data.Body = `<h1>404</h1><p>This page could not be found.</p>`
	case StatePreviewEmpty:
		data.NoIndex = true
		stateJSON, err := propsJSON(v.Props)
		if err != nil {
			return nil, err
		}
		data.StateJSON = stateJSON
	case StateResolved:
		data.SEO = SEOFor(v.Props.Page, v.Props.Locale)
		data.NoIndex = v.Previewing
		body, err := r.renderBody(v.Props)
		if err != nil {
			return nil, err
		}
		data.Body = template.HTML(body)
		stateJSON, err := propsJSON(v.Props)
		if err != nil {
			return nil, err
		}
		data.StateJSON = stateJSON
	default:
		return nil, &Error{Message: fmt.Sprintf("unknown render state %s", v.State)}
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page", data); err != nil {
		return nil, &Error{Message: "failed to execute page template", Cause: err}
	}
	return &Result{Status: status, HTML: buf.Bytes()}, nil
}

func (r *Renderer) renderBody(props pages.Props) (string, error) {
	body, err := r.blocks.Render(props.Page.Data.Blocks)
	if err != nil {
		return "", err
	}
	return ApplyLinkRule(body)
}

// propsJSON encodes props for the client. "</" is escaped so the payload
// cannot close its script element.
func propsJSON(props pages.Props) (template.JS, error) {
	b, err := json.Marshal(props)
	if err != nil {
		return "", &Error{Message: "failed to encode page props", Cause: err}
	}
	return template.JS(strings.ReplaceAll(string(b), "</", `<\/`)), nil
}

func lang(locale string) string {
	if locale == "" {
		return "en"
	}
	return locale
}
