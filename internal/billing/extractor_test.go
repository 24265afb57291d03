package billing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"billtracker/internal/document"
)

type stubEngine struct {
	amountAnswer string
	dateAnswer   string
	err          error
	questions    []string
}

func (s *stubEngine) Answer(ctx context.Context, question string, corpus []document.Segment) (string, error) {
	_ = ctx
	_ = corpus
	s.questions = append(s.questions, question)
	if s.err != nil {
		return "", s.err
	}
	if strings.Contains(question, "due amount") {
		return s.amountAnswer, nil
	}
	return s.dateAnswer, nil
}

func corpus(texts ...string) []document.Segment {
	out := make([]document.Segment, 0, len(texts))
	for i, t := range texts {
		out = append(out, document.Segment{Page: i + 1, Text: t})
	}
	return out
}

func extract(t *testing.T, engine *stubEngine, segs []document.Segment) BillRecord {
	t.Helper()
	record, err := NewExtractor(engine).Extract(context.Background(), segs)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return record
}

func TestExtractAmountVerbatim(t *testing.T) {
	engine := &stubEngine{amountAnswer: "The amount due is 123.45 as of today."}
	record := extract(t, engine, corpus("Total due 123.45 by end of month"))
	if record.DueAmount != "123.45" {
		t.Fatalf("due amount = %q, want 123.45", record.DueAmount)
	}
}

func TestExtractAmountFirstDecimalWins(t *testing.T) {
	engine := &stubEngine{amountAnswer: "Pay 12.50 now or 99.99 with late fees."}
	record := extract(t, engine, corpus("bill"))
	if record.DueAmount != "12.50" {
		t.Fatalf("due amount = %q, want 12.50", record.DueAmount)
	}
}

func TestExtractAmountNoDecimal(t *testing.T) {
	engine := &stubEngine{amountAnswer: "The bill does not state an amount."}
	record := extract(t, engine, corpus("bill"))
	if record.DueAmount != "" {
		t.Fatalf("due amount = %q, want empty", record.DueAmount)
	}
}

func TestExtractCreditAnswerForcesZero(t *testing.T) {
	engine := &stubEngine{amountAnswer: "Your balance is CR, nothing owed."}
	record := extract(t, engine, corpus("bill"))
	if record.DueAmount != "0" {
		t.Fatalf("due amount = %q, want 0", record.DueAmount)
	}
}

func TestExtractCorpusCreditOverridesNumericAnswer(t *testing.T) {
	engine := &stubEngine{amountAnswer: "The amount due is 87.60."}
	record := extract(t, engine, corpus("Balance 87.60 CR - in credit"))
	if record.DueAmount != "0" {
		t.Fatalf("due amount = %q, want 0", record.DueAmount)
	}
}

func TestExtractCorpusCRInsideWordIsNotCredit(t *testing.T) {
	engine := &stubEngine{amountAnswer: "The amount due is 87.60."}
	record := extract(t, engine, corpus("CREDIT TERMS: amount 87.60 due monthly"))
	if record.DueAmount != "87.60" {
		t.Fatalf("due amount = %q, want 87.60", record.DueAmount)
	}
}

func TestExtractAnswerZeroRespected(t *testing.T) {
	engine := &stubEngine{amountAnswer: "The due amount is 0."}
	record := extract(t, engine, corpus("bill"))
	if record.DueAmount != "0" {
		t.Fatalf("due amount = %q, want 0", record.DueAmount)
	}
}

func TestExtractDateValid(t *testing.T) {
	engine := &stubEngine{dateAnswer: "Please pay by 31/01/2025 to avoid late fees."}
	record := extract(t, engine, corpus("bill"))
	if record.DueDate != "31/01/2025" {
		t.Fatalf("due date = %q, want 31/01/2025", record.DueDate)
	}
}

func TestExtractDateInvalidMonth(t *testing.T) {
	engine := &stubEngine{dateAnswer: "The due date is 05/13/2024."}
	record := extract(t, engine, corpus("bill"))
	if record.DueDate != "" {
		t.Fatalf("due date = %q, want empty", record.DueDate)
	}
}

func TestExtractDateFirstValidWins(t *testing.T) {
	engine := &stubEngine{dateAnswer: "Issued 05/13/2024, due 05/12/2024, final 06/12/2024."}
	record := extract(t, engine, corpus("bill"))
	if record.DueDate != "05/12/2024" {
		t.Fatalf("due date = %q, want 05/12/2024", record.DueDate)
	}
}

func TestExtractDateRejectsDayZero(t *testing.T) {
	engine := &stubEngine{dateAnswer: "Due on 00/05/2024."}
	record := extract(t, engine, corpus("bill"))
	if record.DueDate != "" {
		t.Fatalf("due date = %q, want empty", record.DueDate)
	}
}

func TestExtractDateRequiresFourDigitYear(t *testing.T) {
	for _, answer := range []string{"Due 31/01/19.", "Due 31/01/2125.", "Due 31/01/190."} {
		engine := &stubEngine{dateAnswer: answer}
		record := extract(t, engine, corpus("bill"))
		if record.DueDate != "" {
			t.Fatalf("answer %q: due date = %q, want empty", answer, record.DueDate)
		}
	}
}

func TestExtractDateAcceptsNineteenHundreds(t *testing.T) {
	engine := &stubEngine{dateAnswer: "Due 31/01/1999."}
	record := extract(t, engine, corpus("bill"))
	if record.DueDate != "31/01/1999" {
		t.Fatalf("due date = %q, want 31/01/1999", record.DueDate)
	}
}

func TestExtractDateOptionalLeadingZeros(t *testing.T) {
	engine := &stubEngine{dateAnswer: "Due 5/1/2025."}
	record := extract(t, engine, corpus("bill"))
	if record.DueDate != "5/1/2025" {
		t.Fatalf("due date = %q, want 5/1/2025", record.DueDate)
	}
}

func TestExtractDateIsSyntacticOnly(t *testing.T) {
	// Calendar validity is not checked; 31/02 matches.
	engine := &stubEngine{dateAnswer: "Due 31/02/2024."}
	record := extract(t, engine, corpus("bill"))
	if record.DueDate != "31/02/2024" {
		t.Fatalf("due date = %q, want 31/02/2024", record.DueDate)
	}
}

func TestExtractZeroSegmentCorpus(t *testing.T) {
	engine := &stubEngine{amountAnswer: "123.45", dateAnswer: "31/01/2025"}
	record := extract(t, engine, nil)
	if record.DueAmount != "" || record.DueDate != "" {
		t.Fatalf("record = %+v, want empty fields", record)
	}
	if record.Complete() {
		t.Fatalf("empty record reported complete")
	}
	if len(engine.questions) != 0 {
		t.Fatalf("engine queried %d times for empty corpus", len(engine.questions))
	}
}

func TestExtractQueriesAmountThenDate(t *testing.T) {
	engine := &stubEngine{amountAnswer: "123.45", dateAnswer: "due 31/01/2025"}
	record := extract(t, engine, corpus("bill"))
	if !record.Complete() {
		t.Fatalf("record = %+v, want complete", record)
	}
	if len(engine.questions) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(engine.questions))
	}
	if !strings.Contains(engine.questions[0], "due amount") {
		t.Fatalf("first question = %q", engine.questions[0])
	}
	if !strings.Contains(engine.questions[1], "DD/MM/YYYY") {
		t.Fatalf("second question = %q", engine.questions[1])
	}
}

func TestExtractEngineErrorPropagates(t *testing.T) {
	wantErr := errors.New("rate limited")
	engine := &stubEngine{err: wantErr}
	_, err := NewExtractor(engine).Extract(context.Background(), corpus("bill"))
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped %v", err, wantErr)
	}
}
