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

// OpencodeAdapter reads opencode history. Storage is a tree of small JSON
// documents under {base}/storage: project/{id}.json, session/{project}/
// {id}.json, message/{session}/{id}.json and part/{message}/{id}.json.
type OpencodeAdapter struct {
	paths Paths
}

// NewOpencodeAdapter creates an opencode history adapter.
func NewOpencodeAdapter(paths Paths) *OpencodeAdapter {
	return &OpencodeAdapter{paths: paths}
}

// Name returns the provider tag.
func (o *OpencodeAdapter) Name() string {
	return history.ProviderOpencode
}

// Detect reports whether an opencode storage directory exists.
func (o *OpencodeAdapter) Detect() ProviderInfo {
	base := o.paths.opencodeBase()
	available := base != "" && dirExists(filepath.Join(base, "storage"))
	return ProviderInfo{
		ID:          history.ProviderOpencode,
		DisplayName: "OpenCode",
		BasePath:    base,
		Available:   available,
	}
}

func (o *OpencodeAdapter) storageDir() (string, error) {
	base := o.paths.opencodeBase()
	if base == "" {
		return "", fmt.Errorf("opencode: %w", ErrNotFound)
	}
	return filepath.Join(base, "storage"), nil
}

// readJSONDocs parses every .json document in dir, sorted by filename so
// ordered collections keep their storage order. Unreadable or malformed
// documents are skipped.
func readJSONDocs(dir string) []gjson.Result {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil
	}
	sort.Strings(files)

	docs := make([]gjson.Result, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil || !gjson.ValidBytes(data) {
			continue
		}
		docs = append(docs, gjson.ParseBytes(data))
	}
	return docs
}

// opencodeTime reads a timestamp that is either a flat RFC 3339 string field
// or a nested epoch-ms under "time".
func opencodeTime(doc gjson.Result, flat, nested string) string {
	if ts := timestampFromValue(doc.Get(flat)); ts != "" {
		return ts
	}
	return timestampFromValue(doc.Get("time." + nested))
}

// ScanProjects lists every project document with session counts and the most
// recent session activity.
func (o *OpencodeAdapter) ScanProjects() ([]history.Project, error) {
	storage, err := o.storageDir()
	if err != nil {
		return nil, err
	}

	docs := readJSONDocs(filepath.Join(storage, "project"))
	projects := make([]history.Project, 0, len(docs))
	for _, doc := range docs {
		id := doc.Get("id").Str
		if !vpath.IsSafeStorageID(id) {
			continue
		}
		actualPath := doc.Get("path").Str
		if actualPath == "" {
			actualPath = doc.Get("worktree").Str
		}
		name := doc.Get("name").Str
		if name == "" {
			name = filepath.Base(actualPath)
		}

		sessions := readJSONDocs(filepath.Join(storage, "session", id))
		var lastModified string
		for _, s := range sessions {
			ts := opencodeTime(s, "updated_at", "updated")
			if ts == "" {
				ts = opencodeTime(s, "created_at", "created")
			}
			lastModified = history.LatestTimestamp(lastModified, ts)
		}
		if lastModified == "" {
			lastModified = nowRFC3339()
		}

		projects = append(projects, history.Project{
			Name:         name,
			Path:         vpath.Encode(history.ProviderOpencode, id),
			ActualPath:   actualPath,
			SessionCount: len(sessions),
			LastModified: lastModified,
			Provider:     history.ProviderOpencode,
		})
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastModified > projects[j].LastModified
	})
	return projects, nil
}

// LoadSessions lists the session documents of one project.
func (o *OpencodeAdapter) LoadSessions(projectPath string) ([]history.Session, error) {
	projectID, err := vpath.DecodeID(history.ProviderOpencode, projectPath, vpath.IsSafeStorageID)
	if err != nil {
		return nil, err
	}

	storage, err := o.storageDir()
	if err != nil {
		return nil, err
	}

	docs := readJSONDocs(filepath.Join(storage, "session", projectID))
	sessions := make([]history.Session, 0, len(docs))
	for _, doc := range docs {
		id := doc.Get("id").Str
		if !vpath.IsSafeStorageID(id) {
			continue
		}
		created := opencodeTime(doc, "created_at", "created")
		updated := opencodeTime(doc, "updated_at", "updated")
		if updated == "" {
			updated = created
		}

		messageFiles, _ := filepath.Glob(filepath.Join(storage, "message", id, "*.json"))
		sessions = append(sessions, history.Session{
			Path:             vpath.EncodePair(history.ProviderOpencode, projectID, id),
			ID:               id,
			MessageCount:     len(messageFiles),
			FirstMessageTime: created,
			LastMessageTime:  updated,
			Summary:          doc.Get("title").Str,
			Provider:         history.ProviderOpencode,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastMessageTime > sessions[j].LastMessageTime
	})
	return sessions, nil
}

// LoadMessages decodes one session's message documents together with their
// part documents.
func (o *OpencodeAdapter) LoadMessages(sessionPath string) ([]history.Message, error) {
	_, sessionID, err := vpath.DecodePair(history.ProviderOpencode, sessionPath, vpath.IsSafeStorageID, vpath.IsSafeStorageID)
	if err != nil {
		return nil, err
	}

	storage, err := o.storageDir()
	if err != nil {
		return nil, err
	}
	return o.decodeSession(storage, sessionID), nil
}

func (o *OpencodeAdapter) decodeSession(storage, sessionID string) []history.Message {
	docs := readJSONDocs(filepath.Join(storage, "message", sessionID))

	var messages []history.Message
	for _, doc := range docs {
		id := doc.Get("id").Str
		if !vpath.IsSafeStorageID(id) {
			continue
		}
		role := doc.Get("role").Str
		if role == "" {
			role = "user"
		}
		model := doc.Get("model").Str
		if model == "" {
			model = doc.Get("modelID").Str
		}

		msg := history.Message{
			ID:        id,
			SessionID: sessionID,
			Timestamp: opencodeTime(doc, "created_at", "created"),
			Role:      role,
			Model:     model,
			Provider:  history.ProviderOpencode,
		}
		decodeOpencodeParts(&msg, readJSONDocs(filepath.Join(storage, "part", id)))
		if len(msg.Content) == 0 {
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}

// decodeOpencodeParts maps part documents onto content blocks, usage and
// cost. Part kinds outside the known vocabulary (file, snapshot, agent,
// subtask, retry, step-start, patch) are skipped.
func decodeOpencodeParts(msg *history.Message, parts []gjson.Result) {
	for _, part := range parts {
		switch part.Get("type").Str {
		case "text":
			text := part.Get("text").Str
			if text == "" {
				text = part.Get("content").Str
			}
			if text != "" {
				msg.Content = append(msg.Content, history.TextBlock(text))
			}

		case "tool":
			name := part.Get("toolName").Str
			if name == "" {
				name = part.Get("name").Str
			}
			if name == "" {
				name = "unknown"
			}
			id := part.Get("toolCallId").Str
			if id == "" {
				id = part.Get("id").Str
			}
			input := part.Get("input")
			if !input.Exists() {
				input = part.Get("args")
			}
			msg.Content = append(msg.Content, history.ToolUseBlock(id, name, rawJSON(input)))

			result := part.Get("result")
			if part.Get("state").Str == "completed" || result.Exists() {
				msg.Content = append(msg.Content, history.ToolResultBlock(id, rawJSON(result), false))
			}

		case "reasoning":
			text := part.Get("text").Str
			if text == "" {
				text = part.Get("reasoning").Str
			}
			if text != "" {
				msg.Content = append(msg.Content, history.ThinkingBlock(text))
			}

		case "step-finish":
			u := part.Get("usage")
			if u.Exists() {
				input := u.Get("promptTokens")
				if !input.Exists() {
					input = u.Get("input_tokens")
				}
				output := u.Get("completionTokens")
				if !output.Exists() {
					output = u.Get("output_tokens")
				}
				msg.Usage = usageFromResult(input, output, gjson.Result{}, gjson.Result{}, gjson.Result{})
			}
			cost := part.Get("cost")
			if !cost.Exists() {
				cost = part.Get("costUSD")
			}
			if cost.Type == gjson.Number {
				v := cost.Float()
				msg.CostUSD = &v
			}

		case "compaction":
			text := part.Get("text").Str
			if text == "" {
				text = "[Context compacted]"
			}
			msg.Content = append(msg.Content, history.TextBlock("[Summary] "+text))
		}
	}
}

// Search walks every session tree for messages containing query.
func (o *OpencodeAdapter) Search(query string, limit int) ([]history.Message, error) {
	storage, err := o.storageDir()
	if err != nil {
		return nil, err
	}

	sessionRoot := filepath.Join(storage, "session")
	projectDirs, err := os.ReadDir(sessionRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return []history.Message{}, nil
		}
		return nil, fmt.Errorf("opencode: read session root: %w", err)
	}

	queryLower := strings.ToLower(query)
	var matches []history.Message
	for _, projectDir := range projectDirs {
		if !projectDir.IsDir() {
			continue
		}
		sessionFiles, err := filepath.Glob(filepath.Join(sessionRoot, projectDir.Name(), "*.json"))
		if err != nil {
			continue
		}
		for _, sessionFile := range sessionFiles {
			sessionID := strings.TrimSuffix(filepath.Base(sessionFile), ".json")
			for _, msg := range o.decodeSession(storage, sessionID) {
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
