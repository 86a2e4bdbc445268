package block

import (
	"fmt"
	"strings"
)

// Kind classifies a block.
type Kind string

const (
	KindProse Kind = "prose"
	KindTable Kind = "table"
)

// Separator joins block texts when a sequence is flattened.
const Separator = "\n\n"

// Block is a contiguous, typed span of document text.
type Block struct {
	ID     string `json:"id" yaml:"id"`
	Kind   Kind   `json:"kind" yaml:"kind"`
	Offset int    `json:"offset" yaml:"offset"` // Byte offset in the segmented source
	Text   string `json:"text" yaml:"text"`
}

// IDFor returns the id a block of the given kind starting at offset receives.
func IDFor(kind Kind, offset int) string {
	return fmt.Sprintf("%s-%d", kind, offset)
}

// Join concatenates block texts in order using Separator.
func Join(blocks []Block) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString(Separator)
		}
		sb.WriteString(b.Text)
	}
	return sb.String()
}

// Kinds returns the kind of every block, in order.
func Kinds(blocks []Block) []Kind {
	out := make([]Kind, len(blocks))
	for i, b := range blocks {
		out[i] = b.Kind
	}
	return out
}
