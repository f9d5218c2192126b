package retrieve

import (
	"fmt"
	"strings"

	"github.com/vectorsur/ragserver/internal/domain"
)

// BuildContext renders ranked matches into a single prompt-ready block,
// keeping the longest ranked prefix that fits maxChars. Each entry reads
// `[<label> [<category>]#<chunk_index>] <text>` (the bracketed category is
// omitted when empty); entries are joined by blank lines. Matches without
// text are skipped without consuming budget. The first entry that would
// overflow the budget stops the scan entirely, preserving ranking order over
// packing density.
func BuildContext(matches []domain.Match, maxChars int) string {
	var entries []string
	total := 0

	for _, m := range matches {
		if m.Payload.Text == "" {
			continue
		}

		label := m.Payload.Label()
		if m.Payload.Category != "" {
			label += " [" + m.Payload.Category + "]"
		}
		entry := fmt.Sprintf("[%s#%d] %s", label, m.Payload.ChunkIndex, m.Payload.Text)

		if total+len(entry) > maxChars {
			break
		}
		entries = append(entries, entry)
		total += len(entry) + 1
	}

	return strings.Join(entries, "\n\n")
}
