package search

import "strings"

// Snippet extracts a contextual excerpt from content around the earliest
// occurrence of any query term, trimmed toward word boundaries.
func Snippet(content string, queryTerms []string, maxLength int) string {
	if maxLength == 0 {
		maxLength = 300
	}

	contentLower := strings.ToLower(content)

	firstPos := len(content)
	matchedTerm := ""
	for _, term := range queryTerms {
		pos := strings.Index(contentLower, term)
		if pos != -1 && pos < firstPos {
			firstPos = pos
			matchedTerm = term
		}
	}

	// No term present: fall back to the head of the content.
	if firstPos == len(content) {
		if len(content) <= maxLength {
			return content
		}
		return content[:maxLength] + "..."
	}

	halfLength := maxLength / 2
	start := firstPos - halfLength
	end := firstPos + len(matchedTerm) + halfLength
	if start < 0 {
		start = 0
	}
	if end > len(content) {
		end = len(content)
	}

	// Nudge both edges toward the nearest whitespace.
	if start > 0 {
		for i := start; i > 0 && i > start-50; i-- {
			if content[i] == ' ' || content[i] == '\n' {
				start = i + 1
				break
			}
		}
	}
	if end < len(content) {
		for i := end; i < len(content) && i < end+50; i++ {
			if content[i] == ' ' || content[i] == '\n' {
				end = i
				break
			}
		}
	}

	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet = snippet + "..."
	}
	return snippet
}
