package adapters

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agenthist/agenthist/history"
	"github.com/agenthist/agenthist/vpath"
)

// ClaudeAdapter reads Claude Code CLI history. Sessions are JSONL files under
// {base}/projects/{ENCODED_DIR}/{uuid}.jsonl, where ENCODED_DIR is the
// project's absolute path with slashes turned into hyphens.
type ClaudeAdapter struct {
	paths Paths
}

// NewClaudeAdapter creates a Claude Code history adapter.
func NewClaudeAdapter(paths Paths) *ClaudeAdapter {
	return &ClaudeAdapter{paths: paths}
}

// Name returns the provider tag.
func (c *ClaudeAdapter) Name() string {
	return history.ProviderClaude
}

// Detect reports whether a Claude Code data directory exists.
func (c *ClaudeAdapter) Detect() ProviderInfo {
	base := c.paths.claudeBase()
	return ProviderInfo{
		ID:          history.ProviderClaude,
		DisplayName: "Claude Code",
		BasePath:    base,
		Available:   base != "",
	}
}

func (c *ClaudeAdapter) projectsDir() (string, error) {
	base := c.paths.claudeBase()
	if base == "" {
		return "", fmt.Errorf("claude: %w", ErrNotFound)
	}
	return filepath.Join(base, "projects"), nil
}

// decodeProjectDir reverses the hyphen encoding of a project directory name.
// The encoding is lossy (hyphens in path segments are indistinguishable from
// separators), so the result is best effort.
func decodeProjectDir(dirName string) string {
	return strings.ReplaceAll(dirName, "-", "/")
}

// ScanProjects lists every project directory with session counts and the most
// recent activity time.
func (c *ClaudeAdapter) ScanProjects() ([]history.Project, error) {
	projectsDir, err := c.projectsDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []history.Project{}, nil
		}
		return nil, fmt.Errorf("claude: read projects dir: %w", err)
	}

	projects := make([]history.Project, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !vpath.IsSafeStorageID(entry.Name()) {
			continue
		}

		files, err := filepath.Glob(filepath.Join(projectsDir, entry.Name(), "*.jsonl"))
		if err != nil || len(files) == 0 {
			continue
		}

		var lastModified string
		for _, f := range files {
			if stat, err := os.Stat(f); err == nil {
				ts := history.NormalizeMillis(stat.ModTime().UnixMilli())
				lastModified = history.LatestTimestamp(lastModified, ts)
			}
		}

		actualPath := decodeProjectDir(entry.Name())
		projects = append(projects, history.Project{
			Name:         filepath.Base(actualPath),
			Path:         vpath.Encode(history.ProviderClaude, entry.Name()),
			ActualPath:   actualPath,
			SessionCount: len(files),
			LastModified: lastModified,
			Provider:     history.ProviderClaude,
		})
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastModified > projects[j].LastModified
	})
	return projects, nil
}

// LoadSessions lists the sessions of one project directory.
func (c *ClaudeAdapter) LoadSessions(projectPath string) ([]history.Session, error) {
	dirName, err := vpath.DecodeID(history.ProviderClaude, projectPath, vpath.IsSafeStorageID)
	if err != nil {
		return nil, err
	}

	projectsDir, err := c.projectsDir()
	if err != nil {
		return nil, err
	}

	files, err := filepath.Glob(filepath.Join(projectsDir, dirName, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("claude: list sessions: %w", err)
	}

	projectName := filepath.Base(decodeProjectDir(dirName))
	sessions := make([]history.Session, 0, len(files))
	for _, file := range files {
		id := strings.TrimSuffix(filepath.Base(file), ".jsonl")
		if !vpath.IsValidUUID(id) {
			continue
		}
		session, err := c.scanSessionFile(file, dirName, id, projectName)
		if err != nil {
			continue
		}
		if session.MessageCount == 0 {
			continue
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastMessageTime > sessions[j].LastMessageTime
	})
	return sessions, nil
}

// scanSessionFile reads one JSONL session to build its listing entry without
// materializing the full message slice.
func (c *ClaudeAdapter) scanSessionFile(file, dirName, id, projectName string) (history.Session, error) {
	f, err := os.Open(file)
	if err != nil {
		return history.Session{}, fmt.Errorf("claude: open session: %w", err)
	}
	defer f.Close()

	session := history.Session{
		Path:        vpath.EncodePair(history.ProviderClaude, dirName, id),
		ID:          id,
		ProjectName: projectName,
		Provider:    history.ProviderClaude,
	}

	scanner := newLineScanner(f)
	for scanner.Scan() {
		line := gjson.ParseBytes(scanner.Bytes())
		switch line.Get("type").Str {
		case "summary":
			if s := line.Get("summary").Str; s != "" {
				session.Summary = s
			}
		case "user", "assistant", "system":
			msg, ok := decodeClaudeLine(line, id)
			if !ok {
				continue
			}
			session.MessageCount++
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
		}
	}
	if err := scanner.Err(); err != nil {
		return history.Session{}, fmt.Errorf("claude: scan session: %w", err)
	}
	return session, nil
}

// LoadMessages decodes the full message list of one session.
func (c *ClaudeAdapter) LoadMessages(sessionPath string) ([]history.Message, error) {
	dirName, id, err := vpath.DecodePair(history.ProviderClaude, sessionPath, vpath.IsSafeStorageID, vpath.IsValidUUID)
	if err != nil {
		return nil, err
	}

	projectsDir, err := c.projectsDir()
	if err != nil {
		return nil, err
	}
	return c.readAllMessages(filepath.Join(projectsDir, dirName, id+".jsonl"), id)
}

func (c *ClaudeAdapter) readAllMessages(file, sessionID string) ([]history.Message, error) {
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("claude: session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("claude: open session: %w", err)
	}
	defer f.Close()

	var messages []history.Message
	scanner := newLineScanner(f)
	for scanner.Scan() {
		line := gjson.ParseBytes(scanner.Bytes())
		switch line.Get("type").Str {
		case "user", "assistant", "system":
			if msg, ok := decodeClaudeLine(line, sessionID); ok {
				messages = append(messages, msg)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("claude: read session: %w", err)
	}
	return messages, nil
}

// decodeClaudeLine maps one user/assistant/system record onto the canonical
// message. Records with no decodable content are dropped.
func decodeClaudeLine(line gjson.Result, sessionID string) (history.Message, bool) {
	role := line.Get("message.role").Str
	if role == "" {
		role = line.Get("type").Str
	}

	msg := history.Message{
		ID:        line.Get("uuid").Str,
		ParentID:  line.Get("parentUuid").Str,
		SessionID: sessionID,
		Timestamp: timestampFromValue(line.Get("timestamp")),
		Role:      role,
		Content:   decodeClaudeContent(line.Get("message.content")),
		Model:     line.Get("message.model").Str,
		Provider:  history.ProviderClaude,
	}

	u := line.Get("message.usage")
	msg.Usage = usageFromResult(
		u.Get("input_tokens"), u.Get("output_tokens"),
		u.Get("cache_creation_input_tokens"), u.Get("cache_read_input_tokens"),
		u.Get("service_tier"),
	)
	if cost := line.Get("costUSD"); cost.Type == gjson.Number {
		v := cost.Float()
		msg.CostUSD = &v
	}
	if dur := line.Get("durationMs"); dur.Type == gjson.Number {
		v := dur.Int()
		msg.DurationMS = &v
	}

	if len(msg.Content) == 0 {
		return history.Message{}, false
	}
	return msg, true
}

// decodeClaudeContent handles both the plain-string and block-array content
// shapes. Unknown block types are skipped.
func decodeClaudeContent(content gjson.Result) []history.ContentBlock {
	var blocks []history.ContentBlock
	switch content.Type {
	case gjson.String:
		if content.Str != "" {
			blocks = append(blocks, history.TextBlock(content.Str))
		}
	case gjson.JSON:
		content.ForEach(func(_, item gjson.Result) bool {
			switch item.Get("type").Str {
			case "text":
				if t := item.Get("text").Str; t != "" {
					blocks = append(blocks, history.TextBlock(t))
				}
			case "thinking":
				if t := item.Get("thinking").Str; t != "" {
					blocks = append(blocks, history.ThinkingBlock(t))
				}
			case "tool_use":
				id := item.Get("id").Str
				if id != "" {
					blocks = append(blocks, history.ToolUseBlock(id, item.Get("name").Str, rawJSON(item.Get("input"))))
				}
			case "tool_result":
				blocks = append(blocks, history.ToolResultBlock(
					item.Get("tool_use_id").Str,
					rawJSON(item.Get("content")),
					item.Get("is_error").Bool(),
				))
			}
			return true
		})
	}
	return blocks
}

// Search scans every session file for messages containing query.
func (c *ClaudeAdapter) Search(query string, limit int) ([]history.Message, error) {
	projectsDir, err := c.projectsDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []history.Message{}, nil
		}
		return nil, fmt.Errorf("claude: read projects dir: %w", err)
	}

	queryLower := strings.ToLower(query)
	var matches []history.Message
	for _, entry := range entries {
		if !entry.IsDir() || !vpath.IsSafeStorageID(entry.Name()) {
			continue
		}
		files, err := filepath.Glob(filepath.Join(projectsDir, entry.Name(), "*.jsonl"))
		if err != nil {
			continue
		}
		for _, file := range files {
			id := strings.TrimSuffix(filepath.Base(file), ".jsonl")
			if !vpath.IsValidUUID(id) {
				continue
			}
			messages, err := c.readAllMessages(file, id)
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
	}
	return matches, nil
}

// newLineScanner builds a bufio.Scanner sized for large single-line records.
func newLineScanner(f *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)
	return scanner
}
