package parser

import (
	"strings"

	"github.com/dgallion1/docblocks/internal/grid"
)

// NormalizeTables rewrites pipe tables whose delimiter row uses spaces or
// alignment colons into the strict "|---|" form, so tables produced by
// converters are recognized by the segmenter. Other lines are untouched.
func NormalizeTables(md string) string {
	lines := strings.Split(md, "\n")
	var out []string

	for i := 0; i < len(lines); i++ {
		if i+1 < len(lines) && strings.Contains(lines[i], "|") && isLooseDelimiter(lines[i+1]) {
			end := i + 2
			for end < len(lines) && strings.Contains(lines[end], "|") {
				end++
			}
			g := grid.Parse(strings.Join(lines[i:end], "\n"))
			out = append(out, strings.TrimSuffix(g.Markdown(), "\n"))
			i = end - 1
			continue
		}
		out = append(out, lines[i])
	}
	return strings.Join(out, "\n")
}

func isLooseDelimiter(line string) bool {
	s := strings.TrimSpace(line)
	if !strings.Contains(s, "-") || !strings.Contains(s, "|") {
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
