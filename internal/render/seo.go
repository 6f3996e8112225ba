package render

import "github.com/jonathan/pagebuilder-site/internal/builder"

// Dimensions advertised for the OpenGraph image.
const (
	OpenGraphImageWidth  = 800
	OpenGraphImageHeight = 600
)

// SEO is the metadata block written into the document head.
type SEO struct {
	Title       string
	Description string
	OpenGraph   OpenGraph
}

// OpenGraph holds the og:* properties.
type OpenGraph struct {
	Type        string
	Title       string
	Description string
	Locale      string
	Images      []OpenGraphImage
}

// OpenGraphImage is one og:image entry.
type OpenGraphImage struct {
	URL    string
	Width  int
	Height int
	Alt    string
}

// SEOFor builds the metadata block for page. It returns nil when the page has no title.
func SEOFor(page *builder.Content, locale string) *SEO {
	if page == nil || page.Data.Title == "" {
		return nil
	}

	seo := &SEO{
		Title:       page.Data.Title,
		Description: page.Data.Description,
		OpenGraph: OpenGraph{
			Type:        "website",
			Title:       page.Data.Title,
			Description: page.Data.Description,
			Locale:      locale,
		},
	}
	if page.Data.Image != "" {
		seo.OpenGraph.Images = []OpenGraphImage{{
			URL:    page.Data.Image,
			Width:  OpenGraphImageWidth,
			Height: OpenGraphImageHeight,
			Alt:    page.Data.Title,
		}}
	}
	return seo
}
