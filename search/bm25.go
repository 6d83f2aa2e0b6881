// Package search ranks already-matched conversation messages by BM25
// relevance and extracts contextual snippets for presentation. The corpus is
// the in-memory result set of one query; nothing is indexed or persisted.
package search

import (
	"math"
	"strings"
	"unicode"
)

// BM25 parameters (standard values)
const (
	k1 = 1.5  // Term frequency saturation
	b  = 0.75 // Length normalization
)

// BM25Scorer calculates relevance scores using the BM25 algorithm.
type BM25Scorer struct {
	avgDocLength float64
	totalDocs    int
}

// NewBM25Scorer creates a scorer for a corpus with the given statistics.
func NewBM25Scorer(avgDocLength float64, totalDocs int) *BM25Scorer {
	return &BM25Scorer{
		avgDocLength: avgDocLength,
		totalDocs:    totalDocs,
	}
}

// Score calculates the BM25 score for one document given query terms.
// termFreqs: term -> frequency in the document.
// docLength: total number of terms in the document.
// docFreqs: term -> number of documents containing the term.
func (s *BM25Scorer) Score(queryTerms []string, termFreqs map[string]int, docLength int, docFreqs map[string]int) float64 {
	score := 0.0

	for _, term := range queryTerms {
		tf := float64(termFreqs[term])
		if tf == 0 {
			continue
		}

		df := float64(docFreqs[term])
		if df == 0 {
			continue
		}

		// IDF, shifted so it stays positive even when a term appears in
		// every document of the corpus: log(1 + (N - df + 0.5) / (df + 0.5)).
		// The corpus here is one query's match set, so df is close to N.
		idf := math.Log(1 + (float64(s.totalDocs)-df+0.5)/(df+0.5))

		// TF normalization with length penalty
		tfNorm := (tf * (k1 + 1)) / (tf + k1*(1-b+b*float64(docLength)/s.avgDocLength))

		score += idf * tfNorm
	}

	return score
}

// Tokenize converts text to normalized tokens for scoring.
func Tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 1 {
			tokens = append(tokens, current.String())
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// TermFrequency counts occurrences of each term in tokens.
func TermFrequency(tokens []string) map[string]int {
	freqs := make(map[string]int)
	for _, token := range tokens {
		freqs[token]++
	}
	return freqs
}
