package export

import (
	"bytes"
	"context"
	"fmt"
	"html"

	"github.com/dgallion1/docblocks/internal/render"
)

// HTMLExporter wraps the sanitized rendering in a standalone page.
type HTMLExporter struct {
	renderer *render.Renderer
}

func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{renderer: render.New()}
}

func (e *HTMLExporter) Export(ctx context.Context, doc string, meta Metadata) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := e.renderer.HTML(doc)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	title := meta.Title
	if title == "" {
		title = meta.Name
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>%s</title>\n", html.EscapeString(title))
	buf.WriteString("<style>table{border-collapse:collapse}th,td{border:1px solid #999;padding:4px 8px}</style>\n")
	buf.WriteString("</head>\n<body>\n")
	buf.WriteString(body)
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

func (e *HTMLExporter) ContentType() string { return "text/html; charset=utf-8" }
func (e *HTMLExporter) Extension() string   { return ".html" }
