package history

import (
	"encoding/json"
	"strings"
)

// Content block type tags. The wire shapes mirror the Anthropic content-block
// vocabulary so downstream renderers handle every provider uniformly.
const (
	BlockText       = "text"
	BlockThinking   = "thinking"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// ContentBlock is one typed element of a message's content sequence. Only the
// fields relevant to Type are populated.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// thinking
	Thinking string `json:"thinking,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   *bool           `json:"is_error,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ThinkingBlock builds a reasoning content block.
func ThinkingBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockThinking, Thinking: text}
}

// ToolUseBlock builds a tool invocation block. Input must be valid JSON.
func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock builds a tool result block for a terminal invocation.
func ToolResultBlock(toolUseID string, content json.RawMessage, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content, IsError: &isError}
}

// PlainText flattens a message's human-visible content (text and thinking
// blocks) into one string. Used for search matching and snippets.
func (m Message) PlainText() string {
	var parts []string
	for _, b := range m.Content {
		switch b.Type {
		case BlockText:
			if b.Text != "" {
				parts = append(parts, b.Text)
			}
		case BlockThinking:
			if b.Thinking != "" {
				parts = append(parts, b.Thinking)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// HasToolUse reports whether any block in the message is a tool invocation.
func (m Message) HasToolUse() bool {
	for _, b := range m.Content {
		if b.Type == BlockToolUse {
			return true
		}
	}
	return false
}

// HasError reports whether any tool result in the message carries is_error.
func (m Message) HasError() bool {
	for _, b := range m.Content {
		if b.Type == BlockToolResult && b.IsError != nil && *b.IsError {
			return true
		}
	}
	return false
}
