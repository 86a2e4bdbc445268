// Package render turns prose blocks into displayable output.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

// Renderer converts Markdown-flavored text to sanitized HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New returns a Renderer with GFM tables and strikethrough enabled.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// HTML renders markdown and sanitizes the result.
func (r *Renderer) HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

// PlainText renders markdown and strips all markup.
func (r *Renderer) PlainText(markdown string) (string, error) {
	out, err := r.HTML(markdown)
	if err != nil {
		return "", err
	}
	return htmlToText(out), nil
}

// Terminal renders markdown for a terminal without colors.
func (r *Renderer) Terminal(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("terminal renderer: %w", err)
	}
	out, err := tr.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render terminal: %w", err)
	}
	return out, nil
}

// htmlToText walks rendered HTML and keeps text, breaking lines at block
// elements and separating table cells with tabs.
func htmlToText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var sb strings.Builder

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()

		switch tt {
		case html.TextToken:
			sb.WriteString(tok.Data)
		case html.StartTagToken, html.SelfClosingTagToken:
			switch tok.Data {
			case "br":
				sb.WriteByte('\n')
			case "li":
				sb.WriteString("- ")
			}
		case html.EndTagToken:
			switch tok.Data {
			case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "pre", "blockquote", "tr":
				sb.WriteByte('\n')
			case "td", "th":
				sb.WriteByte('\t')
			}
		}
	}

	lines := strings.Split(sb.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
