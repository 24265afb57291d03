package qa

import (
	"sort"
	"strings"
	"unicode"

	"billtracker/internal/document"
)

// TopSegments ranks corpus segments by term overlap with the question and
// returns up to k of them in their original document order. Invoice corpora
// are a handful of pages, so a linear scan replaces a vector index here.
func TopSegments(question string, corpus []document.Segment, k int) []document.Segment {
	if k <= 0 || len(corpus) == 0 {
		return nil
	}
	if len(corpus) <= k {
		return corpus
	}

	queryTerms := termSet(question)

	type scored struct {
		index int
		score int
	}
	ranked := make([]scored, 0, len(corpus))
	for i, seg := range corpus {
		ranked = append(ranked, scored{index: i, score: overlap(queryTerms, seg.Text)})
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	picked := ranked[:k]
	sort.Slice(picked, func(a, b int) bool {
		return picked[a].index < picked[b].index
	})

	out := make([]document.Segment, 0, k)
	for _, s := range picked {
		out = append(out, corpus[s.index])
	}
	return out
}

func overlap(queryTerms map[string]struct{}, text string) int {
	score := 0
	for term := range termSet(text) {
		if _, ok := queryTerms[term]; ok {
			score++
		}
	}
	return score
}

func termSet(text string) map[string]struct{} {
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if len(t) < 2 {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}
