package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// fromPDF extracts the embedded text layer of a PDF. No OCR: image-only
// pages contribute nothing.
func fromPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed files; surface that as a
	// per-file error instead of taking down the request.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
