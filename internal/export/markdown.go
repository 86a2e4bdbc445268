package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// MarkdownExporter writes the document as-is, optionally preceded by a YAML
// front matter block.
type MarkdownExporter struct {
	Now func() time.Time
}

type frontMatter struct {
	Title    string `yaml:"title,omitempty"`
	Exported string `yaml:"exported"`
}

func (e *MarkdownExporter) Export(ctx context.Context, doc string, meta Metadata) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !meta.FrontMatter {
		return []byte(doc), nil
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	fm, err := yaml.Marshal(frontMatter{
		Title:    meta.Title,
		Exported: now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString(doc)
	return buf.Bytes(), nil
}

func (e *MarkdownExporter) ContentType() string { return "text/markdown; charset=utf-8" }
func (e *MarkdownExporter) Extension() string   { return ".md" }
