package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fumiama/go-docx"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

const sampleDoc = "# Report\n\nIntro paragraph.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n- first\n- second\n"

func TestForFormat(t *testing.T) {
	tests := []struct {
		format Format
		ext    string
	}{
		{FormatMarkdown, ".md"},
		{"markdown", ".md"},
		{"", ".md"},
		{FormatHTML, ".html"},
		{"DOCX", ".docx"},
	}
	for _, tt := range tests {
		e, err := ForFormat(tt.format)
		if err != nil {
			t.Fatalf("format %q: unexpected error: %v", tt.format, err)
		}
		if e.Extension() != tt.ext {
			t.Errorf("format %q: expected extension %q, got %q", tt.format, tt.ext, e.Extension())
		}
		if e.ContentType() == "" {
			t.Errorf("format %q: expected content type", tt.format)
		}
	}

	if _, err := ForFormat("pdf"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFilename(t *testing.T) {
	e := &MarkdownExporter{}
	tests := []struct {
		name string
		want string
	}{
		{"report", "report.md"},
		{"report.docx", "report.md"},
		{"../../etc/passwd", "passwd.md"},
		{"", "document.md"},
	}
	for _, tt := range tests {
		if got := Filename(Metadata{Name: tt.name}, e); got != tt.want {
			t.Errorf("name=%q: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestMarkdownExporter_Verbatim(t *testing.T) {
	out, err := (&MarkdownExporter{}).Export(context.Background(), sampleDoc, Metadata{Name: "r"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != sampleDoc {
		t.Errorf("expected document unchanged, got %q", out)
	}
}

func TestMarkdownExporter_FrontMatter(t *testing.T) {
	e := &MarkdownExporter{Now: func() time.Time {
		return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}}
	out, err := e.Export(context.Background(), "body", Metadata{Title: "Q4 Numbers", FrontMatter: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "---\ntitle: Q4 Numbers\n") {
		t.Errorf("expected front matter with title, got %q", s)
	}
	if !strings.Contains(s, "exported:") || !strings.Contains(s, "2026-01-02T03:04:05Z") {
		t.Errorf("expected export timestamp, got %q", s)
	}
	if !strings.HasSuffix(s, "\n---\n\nbody") {
		t.Errorf("expected body after front matter, got %q", s)
	}
}

func TestMarkdownExporter_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&MarkdownExporter{}).Export(ctx, "x", Metadata{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestHTMLExporter(t *testing.T) {
	out, err := NewHTMLExporter().Export(context.Background(), sampleDoc+"\n<script>x()</script>\n", Metadata{Name: "r", Title: "A <b> title"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "<!DOCTYPE html>") {
		t.Errorf("expected standalone page, got %q", s)
	}
	if !strings.Contains(s, "<title>A &lt;b&gt; title</title>") {
		t.Errorf("expected escaped title, got %q", s)
	}
	if !strings.Contains(s, "<table>") {
		t.Errorf("expected rendered table, got %q", s)
	}
	if strings.Contains(s, "<script>") {
		t.Errorf("expected script to be sanitized, got %q", s)
	}
}

func TestDOCXExporter(t *testing.T) {
	out, err := (&DOCXExporter{}).Export(context.Background(), sampleDoc, Metadata{Title: "Report"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("PK")) {
		t.Fatalf("expected zip container, got %q", out[:min(len(out), 8)])
	}

	doc, err := docx.Parse(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("parse exported docx: %v", err)
	}

	var tables, paragraphs int
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Table:
			tables++
		case *docx.Paragraph:
			paragraphs++
		}
	}
	if tables != 1 {
		t.Errorf("expected 1 table, got %d", tables)
	}
	// title, heading, intro, two list items
	if paragraphs < 5 {
		t.Errorf("expected at least 5 paragraphs, got %d", paragraphs)
	}
}

func TestExtractText_NoDuplication(t *testing.T) {
	var got []string
	for _, s := range []string{"Plain *emphasis* text", "```\ncode line\n```"} {
		w := docx.New()
		addProse(w, []byte(s))
		for _, item := range w.Document.Body.Items {
			if p, ok := item.(*docx.Paragraph); ok {
				got = append(got, paragraphText(p))
			}
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %v", len(got), got)
	}
	if strings.Count(got[0], "emphasis") != 1 {
		t.Errorf("expected text once, got %q", got[0])
	}
	if !strings.Contains(got[1], "code line") {
		t.Errorf("expected code text, got %q", got[1])
	}
}

func paragraphText(p *docx.Paragraph) string {
	var sb strings.Builder
	for _, child := range p.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				sb.WriteString(t.Text)
			}
		}
	}
	return sb.String()
}

func TestExtractText_BreaksAndIndentation(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"line one\nline two\n", "line one line two"},
		{"```\n  indented\n```\n", "  indented"},
	}
	for _, tt := range tests {
		src := []byte(tt.src)
		doc := goldmark.New().Parser().Parse(text.NewReader(src))
		if got := extractText(doc.FirstChild(), src); got != tt.want {
			t.Errorf("src=%q: expected %q, got %q", tt.src, tt.want, got)
		}
	}
}
