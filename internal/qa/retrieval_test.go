package qa

import (
	"testing"

	"billtracker/internal/document"
)

func TestTopSegmentsRanksByOverlap(t *testing.T) {
	corpus := []document.Segment{
		{Page: 1, Text: "Customer service contact details and office hours"},
		{Page: 2, Text: "Total amount due 245.50 payable by the due date"},
		{Page: 3, Text: "Usage history for the previous twelve months"},
		{Page: 4, Text: "The due date of this bill is 31/01/2025"},
	}

	got := TopSegments("When is the due date of the bill?", corpus, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Page != 2 || got[1].Page != 4 {
		t.Fatalf("pages = %d, %d", got[0].Page, got[1].Page)
	}
}

func TestTopSegmentsPreservesDocumentOrder(t *testing.T) {
	corpus := []document.Segment{
		{Page: 1, Text: "due date appears here first"},
		{Page: 2, Text: "unrelated page"},
		{Page: 3, Text: "due date appears here as well"},
	}

	got := TopSegments("due date", corpus, 2)
	if len(got) != 2 || got[0].Page >= got[1].Page {
		t.Fatalf("segments out of order: %+v", got)
	}
}

func TestTopSegmentsSmallCorpusReturnedWhole(t *testing.T) {
	corpus := []document.Segment{{Page: 1, Text: "only page"}}

	got := TopSegments("anything", corpus, 4)
	if len(got) != 1 || got[0].Page != 1 {
		t.Fatalf("got = %+v", got)
	}
}

func TestTopSegmentsEmptyInputs(t *testing.T) {
	if got := TopSegments("question", nil, 3); got != nil {
		t.Fatalf("nil corpus: got = %+v", got)
	}
	if got := TopSegments("question", []document.Segment{{Page: 1, Text: "x"}}, 0); got != nil {
		t.Fatalf("k=0: got = %+v", got)
	}
}
