package ios

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/appsize/internal/textio"
	"github.com/google/uuid"
)

// blockSeparator matches a line break followed by two or more blank lines.
// A single blank line separates fields, not variants.
var blockSeparator = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)

// newMarker returns a token that cannot occur in report text.
var newMarker = uuid.NewString

// Segment splits a report into one text block per variant, in document order.
//
// Blank-line runs only end a block once the block has a variant name, so a
// stray gap inside a variant's field list never splits it. Text before the
// first variant (the report title) stays in the first block.
func Segment(text string) []string {
	marker := newMarker()

	text = strings.TrimSpace(textio.NormalizeNewlines(text))
	text = blockSeparator.ReplaceAllLiteralString(text, "\n"+marker+"\n")
	text += "\n" + marker + "\n"

	var (
		blocks  []string
		current []string
		named   bool
	)
	for _, line := range strings.Split(text, "\n") {
		if line == marker {
			if named {
				blocks = append(blocks, strings.Join(current, "\n"))
				current = current[:0]
				named = false
			}
			continue
		}

		current = append(current, line)
		if f, ok := matchField(line); ok && f == FieldVariant {
			name := strings.ReplaceAll(line, f.Label(), "")
			if strings.TrimSpace(name) != "" {
				named = true
			}
		}
	}
	return blocks
}
