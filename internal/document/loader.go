package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Loader turns a PDF byte stream into per-page text segments.
// Library used: github.com/ledongthuc/pdf.
type Loader struct{}

// NewLoader constructs a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load extracts text segments from PDF bytes. Malformed input returns a
// *ParseError. Pages without extractable text (image-only scans) are dropped,
// so a valid PDF may yield zero segments.
func (l *Loader) Load(name string, data []byte) (segments []Segment, err error) {
	// The pdf package panics on some corrupt cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			segments = nil
			err = &ParseError{Name: name, Err: fmt.Errorf("pdf reader panic: %v", rec)}
		}
	}()

	if len(data) == 0 {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("empty document")}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ParseError{Name: name, Err: err}
	}

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Unextractable page, not a malformed document.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		segments = append(segments, Segment{Page: i, Text: text})
	}

	return segments, nil
}
