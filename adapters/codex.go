package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agenthist/agenthist/history"
	"github.com/agenthist/agenthist/vpath"
)

// CodexAdapter reads OpenAI Codex CLI history. Rollout files live under
// {base}/sessions/YYYY/MM/DD/rollout-*.jsonl and {base}/archived_sessions;
// each file is one session, grouped into projects by the session's cwd.
type CodexAdapter struct {
	paths Paths
}

// NewCodexAdapter creates a Codex CLI history adapter.
func NewCodexAdapter(paths Paths) *CodexAdapter {
	return &CodexAdapter{paths: paths}
}

// Name returns the provider tag.
func (c *CodexAdapter) Name() string {
	return history.ProviderCodex
}

// Detect reports whether a Codex home directory exists.
func (c *CodexAdapter) Detect() ProviderInfo {
	base := c.paths.codexBase()
	return ProviderInfo{
		ID:          history.ProviderCodex,
		DisplayName: "Codex CLI",
		BasePath:    base,
		Available:   base != "",
	}
}

// encodeCwd turns an absolute working directory into a project identifier,
// mirroring the hyphen encoding used for project directories elsewhere.
func encodeCwd(cwd string) string {
	return strings.ReplaceAll(filepath.Clean(cwd), "/", "-")
}

// rolloutFiles finds every rollout-*.jsonl under sessions and
// archived_sessions. Missing directories contribute nothing.
func (c *CodexAdapter) rolloutFiles() ([]string, error) {
	base := c.paths.codexBase()
	if base == "" {
		return nil, fmt.Errorf("codex: %w", ErrNotFound)
	}

	var files []string
	for _, dir := range []string{
		filepath.Join(base, "sessions"),
		filepath.Join(base, "archived_sessions"),
	} {
		filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			name := info.Name()
			if !info.IsDir() && strings.HasPrefix(name, "rollout-") && strings.HasSuffix(name, ".jsonl") {
				files = append(files, path)
			}
			return nil
		})
	}
	return files, nil
}

// rolloutMeta is the header information of one rollout file.
type rolloutMeta struct {
	id        string
	cwd       string
	timestamp string
	file      string
}

// scanRolloutMeta reads a rollout file's leading records for session id, cwd
// and start time, stopping as soon as all three are known.
func scanRolloutMeta(file string) (rolloutMeta, error) {
	f, err := os.Open(file)
	if err != nil {
		return rolloutMeta{}, fmt.Errorf("codex: open rollout: %w", err)
	}
	defer f.Close()

	meta := rolloutMeta{file: file}
	scanner := newLineScanner(f)
	for scanner.Scan() {
		line := gjson.ParseBytes(scanner.Bytes())
		switch line.Get("type").Str {
		case "session_meta":
			if meta.id == "" {
				meta.id = line.Get("payload.id").Str
			}
			if meta.cwd == "" {
				meta.cwd = line.Get("payload.cwd").Str
			}
			if meta.timestamp == "" {
				meta.timestamp = timestampFromValue(line.Get("payload.timestamp"))
			}
			if meta.timestamp == "" {
				meta.timestamp = timestampFromValue(line.Get("timestamp"))
			}
		case "turn_context":
			if meta.cwd == "" {
				meta.cwd = line.Get("payload.cwd").Str
			}
		}
		if meta.id != "" && meta.cwd != "" && meta.timestamp != "" {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return rolloutMeta{}, fmt.Errorf("codex: scan rollout: %w", err)
	}
	return meta, nil
}

// ScanProjects groups rollout files by working directory.
func (c *CodexAdapter) ScanProjects() ([]history.Project, error) {
	files, err := c.rolloutFiles()
	if err != nil {
		return nil, err
	}

	byCwd := make(map[string]*history.Project)
	for _, file := range files {
		meta, err := scanRolloutMeta(file)
		if err != nil || meta.cwd == "" || !vpath.IsValidUUID(meta.id) {
			continue
		}
		p, ok := byCwd[meta.cwd]
		if !ok {
			p = &history.Project{
				Name:       filepath.Base(meta.cwd),
				Path:       vpath.Encode(history.ProviderCodex, encodeCwd(meta.cwd)),
				ActualPath: meta.cwd,
				Provider:   history.ProviderCodex,
			}
			byCwd[meta.cwd] = p
		}
		p.SessionCount++
		p.LastModified = history.LatestTimestamp(p.LastModified, meta.timestamp)
	}

	projects := make([]history.Project, 0, len(byCwd))
	for _, p := range byCwd {
		projects = append(projects, *p)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastModified > projects[j].LastModified
	})
	return projects, nil
}

// LoadSessions lists the sessions whose working directory matches the
// project identifier.
func (c *CodexAdapter) LoadSessions(projectPath string) ([]history.Session, error) {
	projectID, err := vpath.DecodeID(history.ProviderCodex, projectPath, vpath.IsSafeStorageID)
	if err != nil {
		return nil, err
	}

	files, err := c.rolloutFiles()
	if err != nil {
		return nil, err
	}

	var sessions []history.Session
	for _, file := range files {
		meta, err := scanRolloutMeta(file)
		if err != nil || meta.cwd == "" || encodeCwd(meta.cwd) != projectID || !vpath.IsValidUUID(meta.id) {
			continue
		}
		messages, err := c.decodeRollout(file, meta.id)
		if err != nil || len(messages) == 0 {
			continue
		}
		sessions = append(sessions, buildSessionFromMessages(
			vpath.Encode(history.ProviderCodex, meta.id),
			meta.id,
			filepath.Base(meta.cwd),
			history.ProviderCodex,
			messages,
		))
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastMessageTime > sessions[j].LastMessageTime
	})
	return sessions, nil
}

// LoadMessages decodes one session addressed by its rollout UUID.
func (c *CodexAdapter) LoadMessages(sessionPath string) ([]history.Message, error) {
	id, err := vpath.DecodeID(history.ProviderCodex, sessionPath, vpath.IsValidUUID)
	if err != nil {
		return nil, err
	}

	files, err := c.rolloutFiles()
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		meta, err := scanRolloutMeta(file)
		if err != nil || meta.id != id {
			continue
		}
		return c.decodeRollout(file, id)
	}
	return nil, fmt.Errorf("codex: session %s: %w", id, ErrNotFound)
}

// decodeRollout maps a rollout file's response items onto canonical messages.
func (c *CodexAdapter) decodeRollout(file, sessionID string) ([]history.Message, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("codex: open rollout: %w", err)
	}
	defer f.Close()

	var messages []history.Message
	scanner := newLineScanner(f)
	index := 0
	for scanner.Scan() {
		line := gjson.ParseBytes(scanner.Bytes())
		if line.Get("type").Str != "response_item" {
			continue
		}
		msg, ok := decodeCodexItem(line, sessionID, index)
		if !ok {
			continue
		}
		messages = append(messages, msg)
		index++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("codex: read rollout: %w", err)
	}
	return messages, nil
}

// decodeCodexItem maps one response_item payload onto a canonical message.
// Conversation prefixes (user instructions, environment context) and items
// with no decodable content are dropped.
func decodeCodexItem(line gjson.Result, sessionID string, index int) (history.Message, bool) {
	payload := line.Get("payload")
	msg := history.Message{
		ID:        payload.Get("id").Str,
		SessionID: sessionID,
		Timestamp: timestampFromValue(line.Get("timestamp")),
		Provider:  history.ProviderCodex,
	}
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("codex-%s-%d", sessionID, index)
	}

	switch payload.Get("type").Str {
	case "message":
		msg.Role = payload.Get("role").Str
		payload.Get("content").ForEach(func(_, item gjson.Result) bool {
			switch item.Get("type").Str {
			case "input_text", "output_text", "text":
				if t := item.Get("text").Str; t != "" {
					msg.Content = append(msg.Content, history.TextBlock(t))
				}
			}
			return true
		})
		if msg.Role == "user" && isCodexPrefix(msg.PlainText()) {
			return history.Message{}, false
		}

	case "reasoning":
		msg.Role = "assistant"
		payload.Get("summary").ForEach(func(_, item gjson.Result) bool {
			if t := item.Get("text").Str; t != "" {
				msg.Content = append(msg.Content, history.ThinkingBlock(t))
			}
			return true
		})

	case "function_call":
		msg.Role = "assistant"
		callID := payload.Get("call_id").Str
		if callID == "" {
			return history.Message{}, false
		}
		args := payload.Get("arguments").Str
		msg.Content = append(msg.Content, history.ToolUseBlock(callID, payload.Get("name").Str, parseOrEmpty(args)))

	case "function_call_output":
		msg.Role = "user"
		callID := payload.Get("call_id").Str
		if callID == "" {
			return history.Message{}, false
		}
		output := payload.Get("output")
		msg.Content = append(msg.Content, history.ToolResultBlock(callID, rawJSON(output), false))

	default:
		return history.Message{}, false
	}

	if len(msg.Content) == 0 {
		return history.Message{}, false
	}
	return msg, true
}

// isCodexPrefix reports whether a user record is a synthetic conversation
// prefix rather than a real prompt.
func isCodexPrefix(text string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	return (strings.HasPrefix(trimmed, "<user_instructions>") && strings.HasSuffix(trimmed, "</user_instructions>")) ||
		(strings.HasPrefix(trimmed, "<environment_context>") && strings.HasSuffix(trimmed, "</environment_context>"))
}

// Search scans every rollout file for messages containing query.
func (c *CodexAdapter) Search(query string, limit int) ([]history.Message, error) {
	files, err := c.rolloutFiles()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var matches []history.Message
	for _, file := range files {
		meta, err := scanRolloutMeta(file)
		if err != nil || !vpath.IsValidUUID(meta.id) {
			continue
		}
		messages, err := c.decodeRollout(file, meta.id)
		if err != nil {
			continue
		}
		for _, msg := range messages {
			if matchesQuery(msg, queryLower) {
				matches = append(matches, msg)
				if len(matches) >= limit {
					return matches, nil
				}
			}
		}
	}
	return matches, nil
}
