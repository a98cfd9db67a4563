// Package chunker splits extracted document text into overlapping,
// boundary-aware segments sized for embedding.
package chunker

import (
	"regexp"
	"strings"
)

// Defaults used when a Chunker is constructed with non-positive values.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

var (
	crlf      = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// Chunker splits text into chunks of roughly chunkSize characters with
// overlap characters shared between neighbors. Sizes count runes, not
// bytes, so multi-byte text is never cut mid-character. Cut points prefer
// a paragraph break, then a sentence end, as long as the boundary lies
// past the midpoint of the window; otherwise the window is cut raw.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New creates a Chunker. Non-positive sizes fall back to the defaults,
// and the overlap is clamped below the chunk size.
func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Split cleans text and slices it into chunks. Every returned chunk is
// non-empty; text that fits in a single chunk is returned as-is after
// cleaning. Empty or whitespace-only input yields no chunks.
func (c *Chunker) Split(text string) []string {
	text = Clean(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= c.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end < len(runes) {
			end = c.snapToBoundary(runes, start, end)
		} else {
			end = len(runes)
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			chunks = append(chunks, piece)
		}

		next := end - c.overlap
		// Boundary snapping can shrink a window below the overlap.
		// Advance without overlap then, so the cursor always moves
		// forward and never underruns the text.
		if next <= start {
			next = end
		}
		start = next
		// Stop once the cursor lands inside the trailing overlap
		// window; the remainder is already covered and would only
		// produce a degenerate micro-chunk.
		if start >= len(runes)-c.overlap {
			break
		}
	}
	return chunks
}

// snapToBoundary moves a tentative window end back to the nearest
// paragraph break, or failing that the nearest sentence end, provided the
// boundary lies past the midpoint of the window. Without an acceptable
// boundary the raw end stands.
func (c *Chunker) snapToBoundary(runes []rune, start, end int) int {
	window := runes[start:end]
	mid := c.chunkSize / 2

	if p := lastIndexPair(window, '\n', '\n'); p > mid {
		return start + p
	}
	if s := lastIndexPair(window, '.', ' '); s > mid {
		// Keep the period with the chunk, cut after it.
		return start + s + 1
	}
	return end
}

// lastIndexPair returns the index of the last occurrence of the two-rune
// sequence a,b, or -1.
func lastIndexPair(runes []rune, a, b rune) int {
	for i := len(runes) - 2; i >= 0; i-- {
		if runes[i] == a && runes[i+1] == b {
			return i
		}
	}
	return -1
}

// Clean normalizes line endings, collapses runs of three or more
// newlines down to two, and trims surrounding whitespace.
func Clean(text string) string {
	text = crlf.Replace(text)
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ChunkSize returns the configured target chunk size in characters.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured neighbor overlap in characters.
func (c *Chunker) Overlap() int { return c.overlap }
