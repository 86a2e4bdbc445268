package block

import "strings"

// Segment partitions doc into prose and table blocks.
//
// A table region is a line containing a pipe, immediately followed by a
// delimiter row (only pipes and hyphens), followed by every consecutive
// line that contains a pipe. Regions are matched greedily and never
// overlap. Gaps between regions become prose blocks unless they are blank.
// Segment accepts any string and never fails.
func Segment(doc string) []Block {
	var blocks []Block
	gapStart := 0

	for pos := 0; pos < len(doc); {
		lineEnd := nextLine(doc, pos)
		end, ok := matchTable(doc, pos, lineEnd)
		if !ok {
			pos = lineEnd
			continue
		}

		blocks = appendProse(blocks, doc, gapStart, pos)
		blocks = append(blocks, Block{
			ID:     IDFor(KindTable, pos),
			Kind:   KindTable,
			Offset: pos,
			Text:   doc[pos:end],
		})
		pos = end
		gapStart = end
	}

	return appendProse(blocks, doc, gapStart, len(doc))
}

// matchTable reports whether a table region starts at the line [start,
// lineEnd) and, if so, where it ends.
func matchTable(doc string, start, lineEnd int) (int, bool) {
	if !strings.Contains(line(doc, start, lineEnd), "|") {
		return 0, false
	}
	if lineEnd >= len(doc) {
		return 0, false
	}
	delimEnd := nextLine(doc, lineEnd)
	if !isDelimiterRow(line(doc, lineEnd, delimEnd)) {
		return 0, false
	}

	end := delimEnd
	for end < len(doc) {
		next := nextLine(doc, end)
		if !strings.Contains(line(doc, end, next), "|") {
			break
		}
		end = next
	}
	return end, true
}

func appendProse(blocks []Block, doc string, start, end int) []Block {
	text := doc[start:end]
	if strings.TrimSpace(text) == "" {
		return blocks
	}
	return append(blocks, Block{
		ID:     IDFor(KindProse, start),
		Kind:   KindProse,
		Offset: start,
		Text:   text,
	})
}

// isDelimiterRow matches rows like "|---|---|". Spaces and alignment
// colons are rejected.
func isDelimiterRow(s string) bool {
	var pipe, dash bool
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '|':
			pipe = true
		case '-':
			dash = true
		default:
			return false
		}
	}
	return pipe && dash
}

// nextLine returns the offset just past the newline ending the line that
// starts at pos, or len(doc) for the last line.
func nextLine(doc string, pos int) int {
	if i := strings.IndexByte(doc[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(doc)
}

// line returns the content of [start, end) without its line terminator.
func line(doc string, start, end int) string {
	s := doc[start:end]
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
