package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/docblocks/internal/block"
	"github.com/dgallion1/docblocks/internal/grid"
	"github.com/fumiama/go-docx"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// headingSizes maps heading levels to run sizes in half-points.
var headingSizes = map[int]string{1: "36", 2: "32", 3: "28", 4: "26", 5: "24", 6: "24"}

// DOCXExporter writes prose blocks as paragraphs and table blocks as Word tables.
type DOCXExporter struct{}

func (e *DOCXExporter) Export(ctx context.Context, doc string, meta Metadata) ([]byte, error) {
	w := docx.New().WithDefaultTheme()

	if meta.Title != "" {
		w.AddParagraph().AddText(meta.Title).Bold().Size(headingSizes[1])
	}

	for _, b := range block.Segment(doc) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch b.Kind {
		case block.KindTable:
			addTable(w, grid.Parse(b.Text))
		default:
			addProse(w, []byte(b.Text))
		}
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *DOCXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}
func (e *DOCXExporter) Extension() string { return ".docx" }

func addTable(w *docx.Docx, g *grid.Grid) {
	if g.Height() == 0 || g.Width() == 0 {
		return
	}
	tbl := w.AddTable(g.Height(), g.Width(), 0, nil)
	for r, row := range tbl.TableRows {
		for c, cell := range row.TableCells {
			value, _ := g.Cell(r, c)
			run := cell.AddParagraph().AddText(value)
			if r == 0 {
				run.Bold()
			}
		}
	}
}

// addProse walks the top-level Markdown blocks of src and emits one Word
// paragraph per block.
func addProse(w *docx.Docx, src []byte) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			t := extractText(node, src)
			if t != "" {
				w.AddParagraph().AddText(t).Bold().Size(headingSizes[node.Level])
			}
		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if t := extractText(item, src); t != "" {
					w.AddParagraph().AddText("• " + t)
				}
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			for _, l := range strings.Split(extractText(node, src), "\n") {
				w.AddParagraph().AddText(l).Size("20")
			}
		default:
			if t := extractText(n, src); t != "" {
				w.AddParagraph().AddText(t)
			}
		}
	}
}

// extractText flattens a node to a single run of text. Leaf blocks keep
// their source lines; soft and hard breaks become spaces.
func extractText(n ast.Node, src []byte) string {
	var sb strings.Builder
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		for i := 0; i < n.Lines().Len(); i++ {
			seg := n.Lines().At(i)
			sb.Write(seg.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			sb.WriteString(extractText(c, src))
			continue
		}
		sb.Write(t.Value(src))
		if t.SoftLineBreak() || t.HardLineBreak() {
			sb.WriteByte(' ')
		}
	}
	// Code lines may start with indentation; only blank lines are trimmed in front.
	return strings.TrimRight(strings.TrimLeft(sb.String(), "\n"), " \n")
}
