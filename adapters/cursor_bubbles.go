package adapters

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/agenthist/agenthist/history"
	"github.com/agenthist/agenthist/vscdb"
)

// composerMeta is the lightweight listing metadata of one composer.
type composerMeta struct {
	name          string
	createdAt     int64
	lastUpdatedAt int64
	messageCount  int
	hasToolUse    bool
	status        string
}

// extractComposerMeta reads metadata out of a composerData blob without
// decoding the conversation itself. The message count comes from whichever
// of the inline conversation or the header list is present.
func extractComposerMeta(doc gjson.Result) composerMeta {
	meta := composerMeta{
		name:          doc.Get("name").Str,
		createdAt:     doc.Get("createdAt").Int(),
		lastUpdatedAt: doc.Get("lastUpdatedAt").Int(),
		status:        doc.Get("status").Str,
	}

	conversation := doc.Get("conversation")
	if conversation.IsArray() {
		turns := conversation.Array()
		meta.messageCount = len(turns)
		for _, turn := range turns {
			if turn.Get("toolFormerData").Exists() || turn.Get("capabilityType").Exists() {
				meta.hasToolUse = true
				break
			}
		}
	} else if headers := doc.Get("fullConversationHeadersOnly"); headers.IsArray() {
		meta.messageCount = len(headers.Array())
	}
	return meta
}

// readComposerMeta fetches and parses composerData:{id} from the global
// store. A missing or malformed blob is reported as not found.
func readComposerMeta(global *vscdb.Reader, composerID string) (composerMeta, bool, error) {
	raw, found, err := global.KV("composerData:" + composerID)
	if err != nil {
		return composerMeta{}, false, err
	}
	if !found || !gjson.Valid(raw) {
		return composerMeta{}, false, nil
	}
	return extractComposerMeta(gjson.Parse(raw)), true, nil
}

// decodeConversation decodes a composer blob into canonical messages,
// dispatching on the schema version tag. Versions below 6 embed the
// conversation inline; 6 and later store header references whose bubble
// blobs live under separate keys.
func decodeConversation(global *vscdb.Reader, composerID string, doc gjson.Result) ([]history.Message, error) {
	if doc.Get("_v").Int() >= 6 {
		return decodeHeaderConversation(global, composerID, doc)
	}
	return decodeInlineConversation(composerID, doc), nil
}

func decodeInlineConversation(composerID string, doc gjson.Result) []history.Message {
	var messages []history.Message
	index := 0
	doc.Get("conversation").ForEach(func(_, bubble gjson.Result) bool {
		if msg, ok := bubbleToMessage(bubble, composerID, index); ok {
			messages = append(messages, msg)
		}
		index++
		return true
	})
	return messages
}

func decodeHeaderConversation(global *vscdb.Reader, composerID string, doc gjson.Result) ([]history.Message, error) {
	var messages []history.Message
	var storeErr error
	index := 0
	doc.Get("fullConversationHeadersOnly").ForEach(func(_, header gjson.Result) bool {
		i := index
		index++

		bubbleID := header.Get("bubbleId").Str
		if bubbleID == "" {
			return true
		}
		raw, found, err := global.KV(fmt.Sprintf("bubbleId:%s:%s", composerID, bubbleID))
		if err != nil {
			storeErr = err
			return false
		}
		// Orphaned headers happen when Cursor prunes old bubbles.
		if !found || !gjson.Valid(raw) {
			return true
		}
		if msg, ok := bubbleToMessage(gjson.Parse(raw), composerID, i); ok {
			messages = append(messages, msg)
		}
		return true
	})
	if storeErr != nil {
		return nil, storeErr
	}
	return messages, nil
}

// bubbleToMessage converts one bubble blob into a canonical message. Bubbles
// of unknown type and bubbles with no decodable content are dropped; an
// empty bubble that carries a capability marker is an intermediate tool
// execution step and is likewise dropped.
func bubbleToMessage(bubble gjson.Result, sessionID string, index int) (history.Message, bool) {
	var role string
	switch bubble.Get("type").Int() {
	case 1:
		role = "user"
	case 2:
		role = "assistant"
	default:
		return history.Message{}, false
	}

	msg := history.Message{
		ID:        bubble.Get("bubbleId").Str,
		SessionID: sessionID,
		Timestamp: timestampFromValue(bubble.Get("createdAt")),
		Role:      role,
		Content:   buildBubbleContent(bubble, role),
		Model:     bubble.Get("modelInfo.modelName").Str,
		Provider:  history.ProviderCursor,
	}
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("cursor-%s-%d", sessionID, index)
	}
	if len(msg.Content) == 0 {
		return history.Message{}, false
	}

	tc := bubble.Get("tokenCount")
	msg.Usage = usageFromResult(
		tc.Get("inputTokens"), tc.Get("outputTokens"),
		gjson.Result{}, gjson.Result{}, gjson.Result{},
	)
	if dur := bubble.Get("thinkingDurationMs"); dur.Type == gjson.Number {
		v := dur.Int()
		msg.DurationMS = &v
	}
	return msg, true
}

// buildBubbleContent assembles content blocks in presentation order:
// thinking, text, tool_use, tool_result. Thinking and tool blocks only
// appear on assistant bubbles.
func buildBubbleContent(bubble gjson.Result, role string) []history.ContentBlock {
	var blocks []history.ContentBlock

	if role == "assistant" {
		if text := bubble.Get("thinking.text").Str; text != "" {
			blocks = append(blocks, history.ThinkingBlock(text))
		}
	}

	if text := bubble.Get("text").Str; text != "" {
		blocks = append(blocks, history.TextBlock(text))
	}

	if role == "assistant" {
		if tfd := bubble.Get("toolFormerData"); tfd.IsObject() {
			callID := tfd.Get("toolCallId").Str
			if callID != "" {
				name := tfd.Get("name").Str
				if name == "" {
					name = "unknown"
				}
				blocks = append(blocks, history.ToolUseBlock(
					callID,
					normalizeCursorToolName(name),
					parseOrEmpty(tfd.Get("rawArgs").Str),
				))

				status := tfd.Get("status").Str
				if status == "completed" || status == "error" {
					if params := tfd.Get("params"); params.Type == gjson.String {
						blocks = append(blocks, history.ToolResultBlock(
							callID,
							parseOrNull(params.Str),
							status == "error",
						))
					}
				}
			}
		}
	}
	return blocks
}

// normalizeCursorToolName maps Cursor-internal tool identifiers onto the
// canonical tool names downstream renderers already handle. Unrecognized
// names pass through unchanged.
func normalizeCursorToolName(name string) string {
	switch name {
	case "read_file", "read_file_v2":
		return "Read"
	case "edit_file", "edit_file_v2", "edit_file_v2_search_replace", "search_replace":
		return "Edit"
	case "edit_files", "MultiEdit", "apply_patch":
		return "MultiEdit"
	case "write":
		return "Write"
	case "run_terminal_cmd", "run_terminal_command_v2", "list_dir", "list_dir_v2", "delete_file":
		return "Bash"
	case "codebase_search", "grep_search", "grep", "rg", "ripgrep", "ripgrep_raw_search":
		return "Grep"
	case "file_search", "glob_file_search":
		return "Glob"
	case "web_search":
		return "WebSearch"
	case "web_fetch":
		return "WebFetch"
	case "todo_write":
		return "TodoWrite"
	case "ask_question":
		return "AskUserQuestion"
	}
	return name
}
