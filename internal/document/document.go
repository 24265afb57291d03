package document

import "fmt"

// Segment is a chunk of extractable text with its source location.
type Segment struct {
	Page int
	Text string
}

// ParseError reports a malformed or unreadable document. The document is
// skipped; the batch continues.
type ParseError struct {
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse document %s", e.Name)
	}
	return fmt.Sprintf("parse document %s: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
