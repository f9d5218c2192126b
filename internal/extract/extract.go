// Package extract converts raw file bytes into plain text by extension.
// Unsupported extensions yield an empty result so callers can skip the file;
// parse failures are reported per file and must not abort a whole batch.
package extract

import (
	"path/filepath"
	"strings"
)

// DefaultExtensions is the ingestion allowlist used when a request does not
// supply its own.
var DefaultExtensions = []string{".pdf", ".xlsx", ".xls", ".txt", ".md", ".markdown"}

// Text extracts plain text from data based on the file name's extension.
// Returns "" for unsupported extensions. The result is not trimmed or
// normalized; chunking handles whitespace.
func Text(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return fromPDF(data)
	case ".xlsx":
		return fromXLSX(data)
	case ".xls":
		return fromXLS(data)
	case ".txt", ".md", ".markdown":
		return string(data), nil
	default:
		return "", nil
	}
}

// Supported reports whether the extension (including the dot, any case) has
// an extractor.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".xlsx", ".xls", ".txt", ".md", ".markdown":
		return true
	default:
		return false
	}
}
