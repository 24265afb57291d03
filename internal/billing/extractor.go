package billing

import (
	"context"
	"fmt"
	"regexp"

	"billtracker/internal/document"
	"billtracker/internal/qa"
)

// The two fixed questions issued against every invoice corpus.
const (
	amountQuestion = "What is the due amount of the bill? If the text has word 'CR' in it, the due amount is 0"
	dateQuestion   = "When is the due date of the bill in DD/MM/YYYY?"
)

var (
	// First decimal substring wins, taken verbatim.
	amountPattern = regexp.MustCompile(`\d+\.\d+`)
	// DD/MM/YYYY with optional leading zeros, month 01-12, year 19xx/20xx.
	// Purely syntactic: 31/02/2024 matches.
	datePattern = regexp.MustCompile(`\b(?:0?[1-9]|[12][0-9]|3[01])/(?:0?[1-9]|1[0-2])/(?:19|20)\d{2}\b`)
	// Credit marker meaning nothing is owed.
	creditPattern = regexp.MustCompile(`\bCR\b`)
	// A lone zero in the answer, the engine following the CR instruction.
	zeroPattern = regexp.MustCompile(`\b0\b`)
)

// Extractor asks the QA engine for the due amount and due date and parses the
// free-text answers into a BillRecord. It is state-free; extraction is a
// syntactic filter over the answers, not a semantic validator, and a failed
// match is a terminal outcome, never retried or re-phrased.
type Extractor struct {
	Engine qa.Engine
}

// NewExtractor constructs an Extractor over the given engine.
func NewExtractor(engine qa.Engine) *Extractor {
	return &Extractor{Engine: engine}
}

// Extract runs the two queries serially and parses the answers. A zero-segment
// corpus resolves both fields to empty without querying. Engine errors abort
// extraction; they are the caller's transient-failure category.
func (e *Extractor) Extract(ctx context.Context, corpus []document.Segment) (BillRecord, error) {
	if len(corpus) == 0 {
		return BillRecord{}, nil
	}

	amountAnswer, err := e.Engine.Answer(ctx, amountQuestion, corpus)
	if err != nil {
		return BillRecord{}, fmt.Errorf("query due amount: %w", err)
	}
	amount := parseAmount(amountAnswer)

	// The prompt instructs the engine about CR, but the invariant must hold
	// even when the engine ignores it: a credit marker anywhere in the source
	// text forces the amount to zero.
	if amount != "0" && corpusHasCredit(corpus) {
		amount = "0"
	}

	dateAnswer, err := e.Engine.Answer(ctx, dateQuestion, corpus)
	if err != nil {
		return BillRecord{}, fmt.Errorf("query due date: %w", err)
	}
	date := parseDueDate(dateAnswer)

	return BillRecord{DueDate: date, DueAmount: amount}, nil
}

func parseAmount(answer string) string {
	if creditPattern.MatchString(answer) {
		return "0"
	}
	if m := amountPattern.FindString(answer); m != "" {
		return m
	}
	if zeroPattern.MatchString(answer) {
		return "0"
	}
	return ""
}

func parseDueDate(answer string) string {
	return datePattern.FindString(answer)
}

func corpusHasCredit(corpus []document.Segment) bool {
	for _, seg := range corpus {
		if creditPattern.MatchString(seg.Text) {
			return true
		}
	}
	return false
}
