// Package grid converts the text of a table block into editable cells and back.
package grid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ErrOutOfRange is returned for row or column indexes outside the grid.
var ErrOutOfRange = errors.New("cell out of range")

// Grid is a pipe table. Row 0 is the header.
type Grid struct {
	Rows [][]string `json:"rows"`
}

// Parse reads a pipe table. The delimiter row is dropped and ragged rows are
// padded to the widest row. Parse never fails; text that is not a table
// yields one cell per line.
func Parse(text string) *Grid {
	g := &Grid{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(g.Rows) == 1 && isDelimiter(line) {
			continue
		}
		g.Rows = append(g.Rows, splitRow(line))
	}

	width := g.Width()
	for i, row := range g.Rows {
		for len(row) < width {
			row = append(row, "")
		}
		g.Rows[i] = row
	}
	return g
}

// Width returns the number of columns.
func (g *Grid) Width() int {
	w := 0
	for _, row := range g.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Height returns the number of rows including the header.
func (g *Grid) Height() int {
	return len(g.Rows)
}

// Cell returns the value at row, col.
func (g *Grid) Cell(row, col int) (string, error) {
	if err := g.check(row, col); err != nil {
		return "", err
	}
	return g.Rows[row][col], nil
}

// SetCell replaces the value at row, col.
func (g *Grid) SetCell(row, col int, value string) error {
	if err := g.check(row, col); err != nil {
		return err
	}
	g.Rows[row][col] = strings.ReplaceAll(value, "\n", " ")
	return nil
}

// AppendRow adds an empty data row.
func (g *Grid) AppendRow() {
	g.Rows = append(g.Rows, make([]string, g.Width()))
}

// DeleteRow removes a data row. The header cannot be removed.
func (g *Grid) DeleteRow(row int) error {
	if row <= 0 || row >= len(g.Rows) {
		return fmt.Errorf("delete row %d: %w", row, ErrOutOfRange)
	}
	g.Rows = append(g.Rows[:row], g.Rows[row+1:]...)
	return nil
}

func (g *Grid) check(row, col int) error {
	if row < 0 || row >= len(g.Rows) || col < 0 || col >= len(g.Rows[row]) {
		return fmt.Errorf("row %d col %d: %w", row, col, ErrOutOfRange)
	}
	return nil
}

// Markdown renders the grid as a pipe table whose delimiter row uses only
// pipes and hyphens. Columns are padded to their display width.
func (g *Grid) Markdown() string {
	if len(g.Rows) == 0 {
		return ""
	}
	widths := g.columnWidths()

	var sb strings.Builder
	writeRow(&sb, g.Rows[0], widths)
	sb.WriteByte('|')
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteByte('|')
	}
	sb.WriteByte('\n')
	for _, row := range g.Rows[1:] {
		writeRow(&sb, row, widths)
	}
	return sb.String()
}

// columnWidths always yields at least one column so the delimiter row
// carries a hyphen even when the header is empty.
func (g *Grid) columnWidths() []int {
	widths := make([]int, max(g.Width(), 1))
	for i := range widths {
		widths[i] = 1
	}
	for _, row := range g.Rows {
		for c, cell := range row {
			if w := runewidth.StringWidth(escape(cell)); w > widths[c] {
				widths[c] = w
			}
		}
	}
	return widths
}

func writeRow(sb *strings.Builder, row []string, widths []int) {
	sb.WriteByte('|')
	for c, w := range widths {
		var cell string
		if c < len(row) {
			cell = escape(row[c])
		}
		sb.WriteByte(' ')
		sb.WriteString(runewidth.FillRight(cell, w))
		sb.WriteString(" |")
	}
	sb.WriteByte('\n')
}

// splitRow splits on unescaped pipes and drops the outer empty cells.
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	var cells []string
	var cur strings.Builder
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '|':
			cur.WriteByte('|')
			i++
		case line[i] == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(line[i])
		}
	}
	cells = append(cells, strings.TrimSpace(cur.String()))

	if strings.HasPrefix(line, "|") {
		cells = cells[1:]
	}
	if strings.HasSuffix(line, "|") && !strings.HasSuffix(line, `\|`) && len(cells) > 0 {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// isDelimiter accepts the loose delimiter forms editors produce, including
// spaces and alignment colons.
func isDelimiter(line string) bool {
	s := strings.TrimSpace(line)
	if !strings.Contains(s, "-") {
		return false
	}
	for _, r := range s {
		switch r {
		case '|', '-', ':', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
