// Package chunk splits long text into bounded, overlapping segments for
// embedding.
package chunk

import (
	"regexp"
	"strings"
)

var wsRe = regexp.MustCompile(`\s+`)

// Split divides text into chunks of at most size characters with the given
// overlap between consecutive chunks. Windows prefer to end on a sentence
// boundary or newline when one falls past the window's midpoint. Overlap is
// clamped to size-1 so the window always advances; empty trimmed chunks are
// dropped.
func Split(text string, size, overlap int) []string {
	text = strings.TrimSpace(wsRe.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = 1
	}
	if overlap >= size {
		overlap = size - 1
	}
	if overlap < 0 {
		overlap = 0
	}

	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + size

		if end < len(text) {
			// Prefer to cut at the later of the last sentence end or
			// newline inside the window, but only past the midpoint so
			// chunks stay reasonably full.
			window := text[start:end]
			breakAt := strings.LastIndex(window, ". ")
			if nl := strings.LastIndex(window, "\n"); nl > breakAt {
				breakAt = nl
			}
			if breakAt > size/2 {
				end = start + breakAt + 1
			}
		} else {
			end = len(text)
		}

		if c := strings.TrimSpace(text[start:end]); c != "" {
			chunks = append(chunks, c)
		}

		if end >= len(text) {
			break
		}
		next := end - overlap
		if next <= start {
			// The break point landed inside the overlap region; step past
			// it rather than stalling.
			next = end
		}
		start = next
	}

	return chunks
}
