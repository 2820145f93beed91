package rag

import (
	"sort"
	"strings"
	"unicode"

	"github.com/policyradar/policyradar/internal/domain/document"
)

// Field weights for keyword scoring. Title hits count double.
const (
	titleWeight   = 2.0
	summaryWeight = 1.0
	topicWeight   = 1.5
)

// scored pairs a document with its relevance score.
type scored struct {
	doc   document.Document
	score float64
}

// tokenize lowercases and splits on non-letter/non-digit runes, dropping
// single-character fragments.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}

// scoreDocument counts query term occurrences across weighted fields.
func scoreDocument(terms []string, d document.Document) float64 {
	title := strings.ToLower(d.Title)
	summary := strings.ToLower(d.Summary)
	topic := strings.ToLower(d.Topic)

	var score float64
	for _, t := range terms {
		if strings.Contains(title, t) {
			score += titleWeight
		}
		if strings.Contains(summary, t) {
			score += summaryWeight
		}
		if strings.Contains(topic, t) {
			score += topicWeight
		}
	}
	return score
}

// retrieve ranks candidates by keyword overlap with the query and returns
// the top k. Ties rank newer documents first; the candidate slice is
// already in published-descending order, so the sort only needs stability.
func retrieve(query string, candidates []document.Document, k int) []scored {
	terms := tokenize(query)
	if len(terms) == 0 || k <= 0 {
		return nil
	}

	hits := make([]scored, 0, len(candidates))
	for _, d := range candidates {
		if s := scoreDocument(terms, d); s > 0 {
			hits = append(hits, scored{doc: d, score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
