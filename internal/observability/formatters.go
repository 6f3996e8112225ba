// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/pagebuilder-site/internal/builder"
	"github.com/jonathan/pagebuilder-site/internal/isr"
	"github.com/jonathan/pagebuilder-site/internal/pages"
	"github.com/jonathan/pagebuilder-site/internal/render"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxTreeDepth bounds how deep PrintBlocks descends
	maxTreeDepth = 4
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintPage outputs a summary of the props generated for a page and the state
// the page route would render them in.
func (p *Printer) PrintPage(path string, props *pages.Props, state render.State) {
	if props == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Path:     %s\n", path))
	if props.Locale != "" {
		sb.WriteString(fmt.Sprintf("Locale:   %s\n", props.Locale))
	}
	sb.WriteString(fmt.Sprintf("State:    %s\n", state))

	if page := props.Page; page != nil {
		sb.WriteString(fmt.Sprintf("Entry:    %s\n", page.ID))
		if page.Name != "" {
			sb.WriteString(fmt.Sprintf("Name:     %s\n", page.Name))
		}
		sb.WriteString(fmt.Sprintf("Title:    %s\n", orNone(page.Data.Title)))
		sb.WriteString(fmt.Sprintf("Blocks:   %d (%d total)\n", len(page.Data.Blocks), countBlocks(page.Data.Blocks)))
	}
	if props.Theme != nil {
		sb.WriteString(fmt.Sprintf("Theme:    %s\n", props.Theme.ID))
	}
	if len(props.Data) > 0 {
		sb.WriteString(fmt.Sprintf("Data:     %d keys\n", len(props.Data)))
	}

	p.printBox("PAGE PROPS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSEO outputs the head metadata a resolved page renders with.
func (p *Printer) PrintSEO(seo *render.SEO) {
	if seo == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:       %s\n", seo.Title))
	sb.WriteString(fmt.Sprintf("Description: %s\n", orNone(seo.Description)))
	sb.WriteString(fmt.Sprintf("og:type:     %s\n", seo.OpenGraph.Type))
	if seo.OpenGraph.Locale != "" {
		sb.WriteString(fmt.Sprintf("og:locale:   %s\n", seo.OpenGraph.Locale))
	}
	for _, img := range seo.OpenGraph.Images {
		sb.WriteString(fmt.Sprintf("og:image:    %s (%dx%d)\n", img.URL, img.Width, img.Height))
	}

	p.printBox("SEO", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBlocks outputs the component tree of a page, a few levels deep.
func (p *Printer) PrintBlocks(blocks []builder.Block) {
	if len(blocks) == 0 {
		return
	}

	var sb strings.Builder
	writeTree(&sb, blocks, 0)

	p.printBox("COMPONENT TREE", strings.TrimSuffix(sb.String(), "\n"))
}

func writeTree(sb *strings.Builder, blocks []builder.Block, depth int) {
	indent := strings.Repeat("  ", depth)
	count := min(len(blocks), maxItemsToShow)
	for i := 0; i < count; i++ {
		b := blocks[i]
		name := "(element)"
		if b.Component != nil {
			name = b.Component.Name
		}
		sb.WriteString(fmt.Sprintf("%s• %s", indent, name))
		if b.ID != "" {
			sb.WriteString(fmt.Sprintf(" [%s]", b.ID))
		}
		sb.WriteString("\n")
		if len(b.Children) > 0 {
			if depth+1 < maxTreeDepth {
				writeTree(sb, b.Children, depth+1)
			} else {
				sb.WriteString(fmt.Sprintf("%s  ... %d nested\n", indent, countBlocks(b.Children)))
			}
		}
	}
	if len(blocks) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("%s... and %d more\n", indent, len(blocks)-maxItemsToShow))
	}
}

// PrintEntry outputs the bookkeeping of a stored generation.
func (p *Printer) PrintEntry(entry *isr.Entry, now time.Time) {
	if entry == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Key:         %s\n", entry.Key))
	sb.WriteString(fmt.Sprintf("Generation:  %s\n", entry.GenerationID))
	sb.WriteString(fmt.Sprintf("Generated:   %s\n", entry.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Age:         %s\n", now.Sub(entry.GeneratedAt).Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Revalidate:  %s", entry.Revalidate))

	p.printBox("GENERATION", sb.String())
}

func countBlocks(blocks []builder.Block) int {
	n := len(blocks)
	for _, b := range blocks {
		n += countBlocks(b.Children)
	}
	return n
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
