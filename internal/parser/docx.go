package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/docblocks/internal/grid"
	"github.com/fumiama/go-docx"
)

// DOCXImporter handles .docx files. Heading styles become "#" headings and
// Word tables become pipe tables.
type DOCXImporter struct{}

func (p *DOCXImporter) Import(r io.Reader, filename string) (string, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docblocks-docx-*.docx")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return "", fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var parts []string
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			text := docxParagraphText(it)
			if text == "" {
				continue
			}
			if level := docxHeadingLevel(it); level > 0 {
				text = strings.Repeat("#", level) + " " + text
			}
			parts = append(parts, text)
		case *docx.Table:
			if t := docxTable(it); t != "" {
				parts = append(parts, strings.TrimSuffix(t, "\n"))
			}
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

func docxTable(tbl *docx.Table) string {
	g := &grid.Grid{}
	for _, row := range tbl.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var paras []string
			for _, para := range cell.Paragraphs {
				if t := docxParagraphText(para); t != "" {
					paras = append(paras, t)
				}
			}
			cells = append(cells, strings.Join(paras, " "))
		}
		g.Rows = append(g.Rows, cells)
	}
	if g.Height() == 0 {
		return ""
	}
	return g.Markdown()
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
