package hub

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agenthist/agenthist/adapters"
	"github.com/agenthist/agenthist/history"
)

// fakeAdapter is a canned-response adapter for façade tests.
type fakeAdapter struct {
	name     string
	projects []history.Project
	sessions []history.Session
	messages []history.Message
	err      error
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Detect() adapters.ProviderInfo {
	return adapters.ProviderInfo{ID: f.name, DisplayName: f.name, Available: f.err == nil}
}

func (f *fakeAdapter) ScanProjects() ([]history.Project, error) {
	return f.projects, f.err
}

func (f *fakeAdapter) LoadSessions(string) ([]history.Session, error) {
	return f.sessions, f.err
}

func (f *fakeAdapter) LoadMessages(string) ([]history.Message, error) {
	return f.messages, f.err
}

func (f *fakeAdapter) Search(query string, limit int) ([]history.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.messages) > limit {
		return f.messages[:limit], nil
	}
	return f.messages, nil
}

func msgWithText(provider, id, ts, text string) history.Message {
	return history.Message{
		ID:        id,
		Timestamp: ts,
		Role:      "user",
		Provider:  provider,
		Content:   []history.ContentBlock{history.TextBlock(text)},
	}
}

func newTestHub(registry map[string]adapters.Adapter) *Hub {
	return New(registry, zerolog.Nop())
}

func TestProvidersSorted(t *testing.T) {
	h := newTestHub(map[string]adapters.Adapter{
		"zeta":  &fakeAdapter{name: "zeta"},
		"alpha": &fakeAdapter{name: "alpha"},
	})
	infos := h.Providers()
	if len(infos) != 2 || infos[0].ID != "alpha" || infos[1].ID != "zeta" {
		t.Fatalf("providers not sorted: %+v", infos)
	}
}

func TestScanProjectsMergesNewestFirst(t *testing.T) {
	h := newTestHub(map[string]adapters.Adapter{
		"a": &fakeAdapter{name: "a", projects: []history.Project{
			{Name: "old", LastModified: "2026-01-01T00:00:00Z", Provider: "a"},
		}},
		"b": &fakeAdapter{name: "b", projects: []history.Project{
			{Name: "new", LastModified: "2026-02-01T00:00:00Z", Provider: "b"},
		}},
	})
	projects, warnings, err := h.ScanProjects(nil)
	if err != nil {
		t.Fatalf("ScanProjects: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if len(projects) != 2 || projects[0].Name != "new" {
		t.Fatalf("merge order wrong: %+v", projects)
	}
}

func TestScanProjectsIsolatesFailures(t *testing.T) {
	h := newTestHub(map[string]adapters.Adapter{
		"ok": &fakeAdapter{name: "ok", projects: []history.Project{
			{Name: "works", Provider: "ok"},
		}},
		"broken": &fakeAdapter{name: "broken", err: fmt.Errorf("corrupt store")},
	})
	projects, warnings, err := h.ScanProjects(nil)
	if err != nil {
		t.Fatalf("per-provider failures must not fail the call: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "works" {
		t.Fatalf("healthy provider results lost: %+v", projects)
	}
	if len(warnings) != 1 || warnings[0].Provider != "broken" || warnings[0].Op != "scan_projects" {
		t.Fatalf("expected structured warning, got %+v", warnings)
	}
}

func TestScanProjectsAbsentProviderIsSilent(t *testing.T) {
	h := newTestHub(map[string]adapters.Adapter{
		"gone": &fakeAdapter{name: "gone", err: fmt.Errorf("gone: %w", adapters.ErrNotFound)},
	})
	projects, warnings, err := h.ScanProjects(nil)
	if err != nil {
		t.Fatalf("ScanProjects: %v", err)
	}
	if len(projects) != 0 || len(warnings) != 0 {
		t.Fatalf("absent provider should contribute nothing silently: %+v %+v", projects, warnings)
	}
}

func TestUnknownProviderSelection(t *testing.T) {
	h := newTestHub(map[string]adapters.Adapter{"a": &fakeAdapter{name: "a"}})

	if _, _, err := h.ScanProjects([]string{"a", "mystery"}); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if _, err := h.LoadSessions("mystery", "x://y"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if _, err := h.LoadMessages("mystery", "x://y/z"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestLoadMessagesPropagatesAdapterError(t *testing.T) {
	want := fmt.Errorf("session missing")
	h := newTestHub(map[string]adapters.Adapter{
		"a": &fakeAdapter{name: "a", err: want},
	})
	if _, err := h.LoadMessages("a", "a://id"); !errors.Is(err, want) {
		t.Fatalf("adapter error not propagated, got %v", err)
	}
}

func TestSearchRanksAcrossProviders(t *testing.T) {
	h := newTestHub(map[string]adapters.Adapter{
		"a": &fakeAdapter{name: "a", messages: []history.Message{
			msgWithText("a", "a1", "2026-01-01T00:00:00Z", "deploy deploy deploy"),
		}},
		"b": &fakeAdapter{name: "b", messages: []history.Message{
			msgWithText("b", "b1", "2026-01-02T00:00:00Z", "one deploy in a much longer unrelated sentence about other work"),
			msgWithText("b", "b2", "2026-01-03T00:00:00Z", "nothing to see"),
		}},
	})
	results, warnings, err := h.Search("deploy", nil, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if len(results) != 2 {
		t.Fatalf("limit applies after the merge, got %d results", len(results))
	}
	if results[0].Message.ID != "a1" {
		t.Fatalf("densest match should rank first, got %q", results[0].Message.ID)
	}
	if results[0].Score <= results[1].Score {
		t.Fatalf("scores not descending: %f vs %f", results[0].Score, results[1].Score)
	}
}

func TestSearchSingleProviderSelection(t *testing.T) {
	h := newTestHub(map[string]adapters.Adapter{
		"a": &fakeAdapter{name: "a", messages: []history.Message{
			msgWithText("a", "a1", "2026-01-01T00:00:00Z", "needle"),
		}},
		"b": &fakeAdapter{name: "b", messages: []history.Message{
			msgWithText("b", "b1", "2026-01-01T00:00:00Z", "needle"),
		}},
	})
	results, _, err := h.Search("needle", []string{"b"}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Message.Provider != "b" {
		t.Fatalf("selection not honored: %+v", results)
	}
}
