package parser

import (
	"fmt"
	"io"
)

// TextImporter handles plain text and Markdown files. Content is passed
// through unchanged so block offsets refer to the uploaded bytes.
type TextImporter struct{}

func (p *TextImporter) Import(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	return string(data), nil
}
