package adapters

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/agenthist/agenthist/history"
)

// timestampFromValue normalizes a timestamp field that may be an ISO-8601
// string or a millisecond epoch integer (signed or unsigned). String inputs
// pass through unchanged; anything unrecognized degrades to "".
func timestampFromValue(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return history.NormalizeMillis(v.Int())
	}
	return ""
}

// intPtr extracts an optional integer field as a pointer, nil when absent or
// not a number.
func intPtr(v gjson.Result) *int {
	if v.Type != gjson.Number {
		return nil
	}
	n := int(v.Int())
	return &n
}

// rawJSON returns a field's raw JSON bytes, or nil when absent.
func rawJSON(v gjson.Result) json.RawMessage {
	if !v.Exists() {
		return nil
	}
	return json.RawMessage(v.Raw)
}

// usageFromResult assembles a TokenUsage from the given counter fields,
// returning nil unless at least one of input/output is present.
func usageFromResult(input, output, cacheCreate, cacheRead, tier gjson.Result) *history.TokenUsage {
	in := intPtr(input)
	out := intPtr(output)
	if in == nil && out == nil {
		return nil
	}
	return &history.TokenUsage{
		InputTokens:              in,
		OutputTokens:             out,
		CacheCreationInputTokens: intPtr(cacheCreate),
		CacheReadInputTokens:     intPtr(cacheRead),
		ServiceTier:              tier.Str,
	}
}

// parseOrEmpty returns s as raw JSON when it parses, "{}" otherwise. Tool
// arguments arrive as strings that are usually but not always valid JSON.
func parseOrEmpty(s string) json.RawMessage {
	if gjson.Valid(s) {
		return json.RawMessage(s)
	}
	return json.RawMessage("{}")
}

// parseOrNull returns s as raw JSON when it parses, JSON null otherwise.
func parseOrNull(s string) json.RawMessage {
	if gjson.Valid(s) {
		return json.RawMessage(s)
	}
	return json.RawMessage("null")
}

// buildSessionFromMessages derives a session listing entry from an already
// decoded message slice.
func buildSessionFromMessages(path, id, projectName, provider string, messages []history.Message) history.Session {
	session := history.Session{
		Path:         path,
		ID:           id,
		ProjectName:  projectName,
		MessageCount: len(messages),
		Provider:     provider,
	}
	for _, msg := range messages {
		if session.FirstMessageTime == "" {
			session.FirstMessageTime = msg.Timestamp
		}
		session.LastMessageTime = history.LatestTimestamp(session.LastMessageTime, msg.Timestamp)
		if msg.HasToolUse() {
			session.HasToolUse = true
		}
		if msg.HasError() {
			session.HasErrors = true
		}
		if session.Summary == "" && msg.Role == "user" {
			session.Summary = firstLine(msg.PlainText())
		}
	}
	return session
}

// firstLine extracts the first non-empty line of text, truncated to 200
// characters.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if len(trimmed) > 200 {
			return trimmed[:200] + "..."
		}
		return trimmed
	}
	return ""
}

// matchesQuery reports whether any visible content of the message contains
// the already-lowercased query.
func matchesQuery(msg history.Message, queryLower string) bool {
	return strings.Contains(strings.ToLower(msg.PlainText()), queryLower)
}

// nowRFC3339 is the fallback timestamp for records with no time information.
func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
