package search

import (
	"sort"

	"github.com/agenthist/agenthist/history"
)

// Ranked is one scored search result.
type Ranked struct {
	Message history.Message `json:"message"`
	Score   float64         `json:"score"`
	Snippet string          `json:"snippet"`
}

// Rank orders messages by BM25 relevance against query, breaking score ties
// by recency, and truncates to limit. Corpus statistics are computed from
// the message set itself, so scores are comparable only within one call.
func Rank(query string, messages []history.Message, limit int) []Ranked {
	queryTerms := Tokenize(query)

	docs := make([]map[string]int, len(messages))
	lengths := make([]int, len(messages))
	docFreqs := make(map[string]int)
	totalLength := 0

	for i, msg := range messages {
		tokens := Tokenize(msg.PlainText())
		docs[i] = TermFrequency(tokens)
		lengths[i] = len(tokens)
		totalLength += len(tokens)
		for term := range docs[i] {
			docFreqs[term]++
		}
	}

	avgLength := 0.0
	if len(messages) > 0 {
		avgLength = float64(totalLength) / float64(len(messages))
	}
	scorer := NewBM25Scorer(avgLength, len(messages))

	results := make([]Ranked, len(messages))
	for i, msg := range messages {
		results[i] = Ranked{
			Message: msg,
			Score:   scorer.Score(queryTerms, docs[i], lengths[i], docFreqs),
			Snippet: Snippet(msg.PlainText(), queryTerms, 300),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Message.Timestamp > results[j].Message.Timestamp
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
