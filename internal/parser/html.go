package parser

import (
	"fmt"
	"io"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// HTMLImporter converts HTML into Markdown, keeping tables as pipe tables.
type HTMLImporter struct {
	conv *converter.Converter
}

func NewHTMLImporter() *HTMLImporter {
	return &HTMLImporter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (p *HTMLImporter) Import(r io.Reader, filename string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	md, err := p.conv.ConvertString(string(src))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return NormalizeTables(md), nil
}
