// Package chunker splits normalized text into overlapping fixed-size windows,
// the unit of embedding and retrieval.
package chunker

import (
	"fmt"
	"strings"

	"github.com/vectorsur/ragserver/internal/domain"
)

// Split collapses whitespace runs to single spaces, trims, and slides a
// window of size runes over the result. Consecutive windows overlap by
// overlap runes; the final window may be shorter. Empty normalized text
// yields no chunks. The same input and config always produce the same
// sequence.
func Split(text string, size, overlap int) ([]domain.Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must be non-negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, size)
	}

	normalized := Normalize(text)
	if normalized == "" {
		return nil, nil
	}

	runes := []rune(normalized)
	var chunks []domain.Chunk
	start := 0
	index := 0
	for start < len(runes) {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{Text: string(runes[start:end]), Index: index})
		index++
		if end >= len(runes) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks, nil
}

// Normalize collapses all whitespace runs to single spaces and trims.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
