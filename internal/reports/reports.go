// Package reports renders portfolio summaries as markdown, and the markdown
// as HTML for the API or as styled text for a terminal.
package reports

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/fintrack/fintrack/internal/modules/portfolio"
)

//go:embed templates/*.md
var templates embed.FS

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"qty":   func(d decimal.Decimal) string { return d.String() },
	"signed": func(d decimal.Decimal) string {
		if d.IsPositive() {
			return "+" + d.StringFixed(2)
		}
		return d.StringFixed(2)
	},
	"percent": func(d decimal.Decimal) string {
		s := d.StringFixed(2) + "%"
		if d.IsPositive() {
			return "+" + s
		}
		return s
	},
}

var portfolioTemplate = template.Must(
	template.New("portfolio.md").Funcs(funcs).ParseFS(templates, "templates/portfolio.md"),
)

// PortfolioMarkdown renders a valuation summary
func PortfolioMarkdown(s *portfolio.Summary) (string, error) {
	var b strings.Builder
	if err := portfolioTemplate.Execute(&b, s); err != nil {
		return "", fmt.Errorf("failed to render portfolio report: %w", err)
	}
	return b.String(), nil
}

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML converts markdown to an HTML fragment
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := htmlRenderer.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return buf.String(), nil
}

// Terminal renders markdown for a terminal of the given width
func Terminal(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create terminal renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
