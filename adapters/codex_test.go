package adapters

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agenthist/agenthist/vpath"
)

const codexSessionID = "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"

// newCodexFixture builds a Codex home with one rollout session.
func newCodexFixture(t *testing.T) Paths {
	t.Helper()
	home := t.TempDir()
	dir := filepath.Join(home, "sessions", "2026", "02", "03")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	lines := []string{
		`{"type":"session_meta","timestamp":"2026-02-03T10:00:00Z","payload":{"id":"` + codexSessionID + `","cwd":"/Users/dev/app","timestamp":"2026-02-03T10:00:00Z"}}`,
		`{"type":"turn_context","payload":{"cwd":"/Users/dev/app"}}`,
		`{"type":"response_item","timestamp":"2026-02-03T10:00:01Z","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"<user_instructions>be terse</user_instructions>"}]}}`,
		`{"type":"response_item","timestamp":"2026-02-03T10:00:02Z","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"add caching to the loader"}]}}`,
		`{"type":"response_item","timestamp":"2026-02-03T10:00:03Z","payload":{"type":"reasoning","summary":[{"type":"summary_text","text":"plan the cache"}]}}`,
		`{"type":"response_item","timestamp":"2026-02-03T10:00:04Z","payload":{"type":"function_call","name":"shell","arguments":"{\"command\":[\"ls\"]}","call_id":"call_1"}}`,
		`{"type":"response_item","timestamp":"2026-02-03T10:00:05Z","payload":{"type":"function_call_output","call_id":"call_1","output":"loader.go"}}`,
		`{"type":"response_item","timestamp":"2026-02-03T10:00:06Z","payload":{"type":"message","role":"assistant","content":[{"type":"output_text","text":"Added a caching layer."}]}}`,
	}
	file := filepath.Join(dir, "rollout-2026-02-03T10-00-00-"+codexSessionID+".jsonl")
	if err := os.WriteFile(file, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write rollout: %v", err)
	}
	return Paths{CodexHome: home}
}

func TestCodexScanProjects(t *testing.T) {
	adapter := NewCodexAdapter(newCodexFixture(t))
	projects, err := adapter.ScanProjects()
	if err != nil {
		t.Fatalf("ScanProjects: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	p := projects[0]
	if p.Name != "app" || p.ActualPath != "/Users/dev/app" || p.SessionCount != 1 {
		t.Fatalf("unexpected project: %+v", p)
	}
	if p.Path != "codex://-Users-dev-app" || p.LastModified != "2026-02-03T10:00:00Z" {
		t.Fatalf("unexpected project: %+v", p)
	}
}

func TestCodexLoadSessions(t *testing.T) {
	adapter := NewCodexAdapter(newCodexFixture(t))
	sessions, err := adapter.LoadSessions("codex://-Users-dev-app")
	if err != nil {
		t.Fatalf("LoadSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if s.ID != codexSessionID || s.Path != "codex://"+codexSessionID {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.MessageCount != 5 || !s.HasToolUse {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.Summary != "add caching to the loader" {
		t.Fatalf("summary should be first user line, got %q", s.Summary)
	}
}

func TestCodexLoadMessages(t *testing.T) {
	adapter := NewCodexAdapter(newCodexFixture(t))
	messages, err := adapter.LoadMessages("codex://" + codexSessionID)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("instruction prefix must be dropped, got %d messages", len(messages))
	}

	if messages[0].Role != "user" || messages[0].PlainText() != "add caching to the loader" {
		t.Fatalf("unexpected first message: %+v", messages[0])
	}
	if messages[1].Content[0].Type != "thinking" || messages[1].Content[0].Thinking != "plan the cache" {
		t.Fatalf("reasoning not decoded: %+v", messages[1].Content)
	}
	call := messages[2].Content[0]
	if call.Type != "tool_use" || call.ID != "call_1" || call.Name != "shell" {
		t.Fatalf("function_call not decoded: %+v", call)
	}
	result := messages[3].Content[0]
	if result.Type != "tool_result" || result.ToolUseID != "call_1" {
		t.Fatalf("function_call_output not decoded: %+v", result)
	}
	if messages[4].Role != "assistant" || messages[4].PlainText() != "Added a caching layer." {
		t.Fatalf("unexpected last message: %+v", messages[4])
	}
}

func TestCodexLoadMessagesUnknownSession(t *testing.T) {
	adapter := NewCodexAdapter(newCodexFixture(t))
	_, err := adapter.LoadMessages("codex://ffffffff-0000-4000-8000-000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_, err = adapter.LoadMessages("codex://not-a-uuid")
	if !errors.Is(err, vpath.ErrInvalidIdentifier) {
		t.Fatalf("expected identifier rejection, got %v", err)
	}
}

func TestCodexSearch(t *testing.T) {
	adapter := NewCodexAdapter(newCodexFixture(t))
	matches, err := adapter.Search("caching", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected user + assistant matches, got %d", len(matches))
	}

	limited, err := adapter.Search("caching", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit not applied, got %d", len(limited))
	}
}
