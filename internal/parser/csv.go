package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/docblocks/internal/grid"
)

// CSVImporter turns a CSV file into a single pipe table.
type CSVImporter struct{}

func (p *CSVImporter) Import(r io.Reader, filename string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	// First row is headers.
	g := &grid.Grid{Rows: records}
	return g.Markdown(), nil
}
