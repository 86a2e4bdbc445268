// Package export converts a flattened document into a downloadable artifact.
package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format names an export target.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
)

// ErrUnsupportedFormat is returned by ForFormat for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Metadata is supplied by the caller alongside the document text.
type Metadata struct {
	Name        string `json:"name" yaml:"-"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Format      Format `json:"format" yaml:"-"`
	FrontMatter bool   `json:"front_matter,omitempty" yaml:"-"`
}

// Exporter produces a binary artifact from a flattened document.
type Exporter interface {
	Export(ctx context.Context, doc string, meta Metadata) ([]byte, error)
	ContentType() string
	Extension() string
}

// ForFormat returns the exporter for f.
func ForFormat(f Format) (Exporter, error) {
	switch Format(strings.ToLower(string(f))) {
	case FormatMarkdown, "markdown", "":
		return &MarkdownExporter{}, nil
	case FormatHTML:
		return NewHTMLExporter(), nil
	case FormatDOCX:
		return &DOCXExporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// Filename builds a safe download name for an export.
func Filename(meta Metadata, e Exporter) string {
	name := SanitizeName(meta.Name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		name = "document"
	}
	return name + e.Extension()
}

// SanitizeName strips path components and separators from a caller-supplied name.
func SanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		return ""
	}
	return name
}
