package qa

import (
	"context"
	"errors"

	"billtracker/internal/document"
)

// Engine answers a natural-language question about a document corpus.
// Answers are free-form text; callers must not assume any fixed grammar.
// Implementations must be safe for concurrent independent queries.
type Engine interface {
	Answer(ctx context.Context, question string, corpus []document.Segment) (string, error)
}

// ErrNotImplemented is returned by the placeholder engine.
var ErrNotImplemented = errors.New("qa engine not implemented")

// PlaceholderEngine is a stub implementation until provider wiring is added.
type PlaceholderEngine struct{}

// Answer returns ErrNotImplemented.
func (PlaceholderEngine) Answer(ctx context.Context, question string, corpus []document.Segment) (string, error) {
	_ = ctx
	_ = question
	_ = corpus
	return "", ErrNotImplemented
}
