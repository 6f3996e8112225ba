package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RouterLinkAttr marks links the client-side router handles.
const RouterLinkAttr = "data-router-link"

// LinkVariant is how a link in rendered content is emitted.
type LinkVariant int

const (
	// LinkPlain is an ordinary hyperlink the browser follows itself.
	LinkPlain LinkVariant = iota
	// LinkClientRouted is a link handed to the client-side router.
	LinkClientRouted
)

func (v LinkVariant) String() string {
	if v == LinkPlain {
		return "plain"
	}
	return "client_routed"
}

// LinkFor applies the link rule: new-tab links and in-page anchors stay plain,
// everything else is client routed.
func LinkFor(href, target string) LinkVariant {
	if target == "_blank" || strings.HasPrefix(href, "#") {
		return LinkPlain
	}
	return LinkClientRouted
}

// ApplyLinkRule marks every client-routed <a> in the HTML fragment with
// RouterLinkAttr and strips the marker from plain links.
func ApplyLinkRule(fragment string) (string, error) {
	if fragment == "" {
		return "", nil
	}

	// Parse in a <body> context so no element is hoisted into <head>.
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", &Error{Message: "failed to parse rendered HTML", Cause: err}
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	doc := goquery.NewDocumentFromNode(body)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		target, _ := s.Attr("target")
		switch LinkFor(href, target) {
		case LinkPlain:
			s.RemoveAttr(RouterLinkAttr)
		case LinkClientRouted:
			s.SetAttr(RouterLinkAttr, "")
		}
	})

	out, err := doc.Html()
	if err != nil {
		return "", &Error{Message: fmt.Sprintf("failed to serialize rendered HTML (%d bytes)", len(fragment)), Cause: err}
	}
	return out, nil
}
