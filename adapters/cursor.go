package adapters

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agenthist/agenthist/history"
	"github.com/agenthist/agenthist/vpath"
	"github.com/agenthist/agenthist/vscdb"
)

// CursorAdapter reads Cursor AI editor history. Conversation data lives in
// two SQLite stores: {base}/globalStorage/state.vscdb holds composer blobs
// and message bubbles, and each {base}/workspaceStorage/{hash}/state.vscdb
// maps a workspace to its composer ids.
type CursorAdapter struct {
	paths Paths
}

// NewCursorAdapter creates a Cursor history adapter.
func NewCursorAdapter(paths Paths) *CursorAdapter {
	return &CursorAdapter{paths: paths}
}

// Name returns the provider tag.
func (c *CursorAdapter) Name() string {
	return history.ProviderCursor
}

// Detect reports whether a Cursor global store exists.
func (c *CursorAdapter) Detect() ProviderInfo {
	base := c.paths.cursorBase()
	available := false
	if base != "" {
		if stat, err := os.Stat(filepath.Join(base, "globalStorage", "state.vscdb")); err == nil && !stat.IsDir() {
			available = true
		}
	}
	return ProviderInfo{
		ID:          history.ProviderCursor,
		DisplayName: "Cursor AI",
		BasePath:    base,
		Available:   available,
	}
}

func (c *CursorAdapter) base() (string, error) {
	base := c.paths.cursorBase()
	if base == "" {
		return "", fmt.Errorf("cursor: %w", ErrNotFound)
	}
	return base, nil
}

func (c *CursorAdapter) globalReader(base string) *vscdb.Reader {
	return vscdb.NewReader(filepath.Join(base, "globalStorage", "state.vscdb"))
}

// workspaceInfo maps one workspace hash directory to its project folder and
// composer ids.
type workspaceInfo struct {
	hash        string
	folderPath  string
	composerIDs []string
}

// discoverWorkspaces walks {base}/workspaceStorage. Symlinked entries and
// entries whose names fail validation are skipped, as are workspaces without
// any composer conversation.
func (c *CursorAdapter) discoverWorkspaces(base string) ([]workspaceInfo, error) {
	root := filepath.Join(base, "workspaceStorage")
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cursor: read workspace storage: %w", err)
	}

	var workspaces []workspaceInfo
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink != 0 || !entry.IsDir() {
			continue
		}
		hash := entry.Name()
		if !vpath.IsSafeStorageID(hash) {
			continue
		}

		folderPath, ok := readWorkspaceFolder(filepath.Join(root, hash, "workspace.json"))
		if !ok {
			continue
		}

		composerIDs := readWorkspaceComposerIDs(filepath.Join(root, hash, "state.vscdb"))
		if len(composerIDs) == 0 {
			continue
		}

		workspaces = append(workspaces, workspaceInfo{
			hash:        hash,
			folderPath:  folderPath,
			composerIDs: composerIDs,
		})
	}
	return workspaces, nil
}

// readWorkspaceFolder extracts the project folder path from workspace.json.
func readWorkspaceFolder(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil || !gjson.ValidBytes(data) {
		return "", false
	}
	folder := gjson.GetBytes(data, "folder").Str
	if folder == "" {
		return "", false
	}
	return uriToPath(folder), true
}

// uriToPath strips the file:// scheme and decodes percent escapes; a failed
// decode falls back to the raw stripped value.
func uriToPath(uri string) string {
	stripped, ok := strings.CutPrefix(uri, "file://")
	if !ok {
		return uri
	}
	if decoded, err := url.PathUnescape(stripped); err == nil {
		return decoded
	}
	return stripped
}

// readWorkspaceComposerIDs reads the composer id list from a workspace store.
// Every id is validated as a UUID before use.
func readWorkspaceComposerIDs(dbPath string) []string {
	if _, err := os.Stat(dbPath); err != nil {
		return nil
	}
	raw, found, err := vscdb.NewReader(dbPath).Item("composer.composerData")
	if err != nil || !found || !gjson.Valid(raw) {
		return nil
	}

	var ids []string
	gjson.Get(raw, "allComposers").ForEach(func(_, composer gjson.Result) bool {
		if id := composer.Get("composerId").Str; vpath.IsValidUUID(id) {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

// ScanProjects lists every workspace with at least one non-empty composer.
func (c *CursorAdapter) ScanProjects() ([]history.Project, error) {
	base, err := c.base()
	if err != nil {
		return nil, err
	}
	workspaces, err := c.discoverWorkspaces(base)
	if err != nil {
		return nil, err
	}
	if len(workspaces) == 0 {
		return []history.Project{}, nil
	}

	global := c.globalReader(base)
	var projects []history.Project
	for _, ws := range workspaces {
		var totalMessages int
		var lastUpdated int64
		hasContent := false

		for _, cid := range ws.composerIDs {
			meta, found, err := readComposerMeta(global, cid)
			if err != nil {
				return nil, err
			}
			if !found {
				continue
			}
			if meta.messageCount > 0 {
				hasContent = true
			}
			totalMessages += meta.messageCount
			if meta.lastUpdatedAt > lastUpdated {
				lastUpdated = meta.lastUpdatedAt
			}
		}
		if !hasContent {
			continue
		}

		var lastModified string
		if lastUpdated > 0 {
			lastModified = history.NormalizeMillis(lastUpdated)
		}
		projects = append(projects, history.Project{
			Name:         filepath.Base(ws.folderPath),
			Path:         vpath.Encode(history.ProviderCursor, ws.hash),
			ActualPath:   ws.folderPath,
			SessionCount: len(ws.composerIDs),
			MessageCount: totalMessages,
			LastModified: lastModified,
			Provider:     history.ProviderCursor,
		})
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastModified > projects[j].LastModified
	})
	return projects, nil
}

// LoadSessions lists the composers of one workspace, addressed by its hash.
func (c *CursorAdapter) LoadSessions(projectPath string) ([]history.Session, error) {
	hash, err := vpath.DecodeID(history.ProviderCursor, projectPath, vpath.IsSafeStorageID)
	if err != nil {
		return nil, err
	}
	base, err := c.base()
	if err != nil {
		return nil, err
	}

	wsDir := filepath.Join(base, "workspaceStorage", hash)
	composerIDs := readWorkspaceComposerIDs(filepath.Join(wsDir, "state.vscdb"))
	if len(composerIDs) == 0 {
		return []history.Session{}, nil
	}

	projectName := ""
	if folder, ok := readWorkspaceFolder(filepath.Join(wsDir, "workspace.json")); ok {
		projectName = filepath.Base(folder)
	}

	global := c.globalReader(base)
	var sessions []history.Session
	for _, cid := range composerIDs {
		meta, found, err := readComposerMeta(global, cid)
		if err != nil {
			return nil, err
		}
		if !found || meta.messageCount == 0 {
			continue
		}

		var first, last string
		if meta.createdAt > 0 {
			first = history.NormalizeMillis(meta.createdAt)
		}
		if meta.lastUpdatedAt > 0 {
			last = history.NormalizeMillis(meta.lastUpdatedAt)
		}
		summary := meta.name
		if summary == "" && meta.status != "" && meta.status != "none" {
			summary = meta.status
		}

		sessions = append(sessions, history.Session{
			Path:             vpath.Encode(history.ProviderCursor, cid),
			ID:               cid,
			ProjectName:      projectName,
			MessageCount:     meta.messageCount,
			FirstMessageTime: first,
			LastMessageTime:  last,
			HasToolUse:       meta.hasToolUse,
			Summary:          summary,
			Provider:         history.ProviderCursor,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastMessageTime > sessions[j].LastMessageTime
	})
	return sessions, nil
}

// LoadMessages decodes one composer conversation, addressed by its UUID.
func (c *CursorAdapter) LoadMessages(sessionPath string) ([]history.Message, error) {
	composerID, err := vpath.DecodeID(history.ProviderCursor, sessionPath, vpath.IsValidUUID)
	if err != nil {
		return nil, err
	}
	base, err := c.base()
	if err != nil {
		return nil, err
	}

	global := c.globalReader(base)
	raw, found, err := global.KV("composerData:" + composerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("cursor: composer %s: %w", composerID, ErrNotFound)
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("cursor: composer %s: malformed composer data", composerID)
	}
	return decodeConversation(global, composerID, gjson.Parse(raw))
}

// Search pre-filters bubble blobs at the SQL level, then decodes the
// survivors and confirms the match case-insensitively.
func (c *CursorAdapter) Search(query string, limit int) ([]history.Message, error) {
	base, err := c.base()
	if err != nil {
		return nil, err
	}

	rows, err := c.globalReader(base).ScanKV("bubbleId:", query, limit)
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var matches []history.Message
	for _, raw := range rows {
		if len(matches) >= limit {
			break
		}
		if !gjson.Valid(raw) {
			continue
		}
		msg, ok := bubbleToMessage(gjson.Parse(raw), "", 0)
		if !ok {
			continue
		}
		if matchesQuery(msg, queryLower) {
			matches = append(matches, msg)
		}
	}
	return matches, nil
}
