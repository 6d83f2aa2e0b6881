// Package hub aggregates provider adapters behind one façade. Multi-provider
// operations fan out concurrently, isolate per-provider failures as warnings
// and merge the partial results; single-provider operations propagate errors
// directly.
package hub

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agenthist/agenthist/adapters"
	"github.com/agenthist/agenthist/history"
	"github.com/agenthist/agenthist/search"
)

// ErrUnknownProvider reports a provider tag with no registered adapter.
var ErrUnknownProvider = errors.New("unknown provider")

// Warning is a structured record of a provider that failed to contribute to
// a multi-provider operation. The operation's other results are unaffected.
type Warning struct {
	Provider string `json:"provider"`
	Op       string `json:"op"`
	Message  string `json:"message"`
}

// SearchResult is one relevance-ranked search hit.
type SearchResult = search.Ranked

// Hub fans requests out to the registered adapters. It holds no state beyond
// the registry and a logger; every operation reads provider storage fresh.
type Hub struct {
	adapters map[string]adapters.Adapter
	log      zerolog.Logger
}

// New creates a Hub over the given adapter registry.
func New(registry map[string]adapters.Adapter, log zerolog.Logger) *Hub {
	return &Hub{adapters: registry, log: log}
}

// Providers reports detection info for every registered provider, sorted by
// tag.
func (h *Hub) Providers() []adapters.ProviderInfo {
	infos := make([]adapters.ProviderInfo, 0, len(h.adapters))
	for _, adapter := range h.adapters {
		infos = append(infos, adapter.Detect())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// resolve expands the caller's provider selection. An empty selection means
// every registered provider; an unrecognized tag is an error.
func (h *Hub) resolve(providers []string) ([]string, error) {
	if len(providers) == 0 {
		all := make([]string, 0, len(h.adapters))
		for tag := range h.adapters {
			all = append(all, tag)
		}
		sort.Strings(all)
		return all, nil
	}
	for _, tag := range providers {
		if _, ok := h.adapters[tag]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, tag)
		}
	}
	return providers, nil
}

// fanOut runs op against each selected provider concurrently, collecting
// warnings for the ones that fail.
func (h *Hub) fanOut(providers []string, opName string, op func(adapters.Adapter) error) []Warning {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		warnings []Warning
	)
	for _, tag := range providers {
		adapter := h.adapters[tag]
		wg.Add(1)
		go func(tag string) {
			defer wg.Done()
			err := op(adapter)
			if err == nil {
				return
			}
			h.log.Debug().Str("provider", tag).Str("op", opName).Err(err).
				Msg("provider skipped")
			// Absent providers contribute nothing; only real failures warn.
			if errors.Is(err, adapters.ErrNotFound) {
				return
			}
			mu.Lock()
			warnings = append(warnings, Warning{Provider: tag, Op: opName, Message: err.Error()})
			mu.Unlock()
		}(tag)
	}
	wg.Wait()
	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].Provider < warnings[j].Provider
	})
	return warnings
}

// ScanProjects lists projects across the selected providers, newest first.
func (h *Hub) ScanProjects(providers []string) ([]history.Project, []Warning, error) {
	selected, err := h.resolve(providers)
	if err != nil {
		return nil, nil, err
	}

	var (
		mu       sync.Mutex
		projects []history.Project
	)
	warnings := h.fanOut(selected, "scan_projects", func(a adapters.Adapter) error {
		found, err := a.ScanProjects()
		if err != nil {
			return err
		}
		mu.Lock()
		projects = append(projects, found...)
		mu.Unlock()
		return nil
	})

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastModified > projects[j].LastModified
	})
	return projects, warnings, nil
}

// LoadSessions lists the sessions of one project under one provider.
func (h *Hub) LoadSessions(provider, projectPath string) ([]history.Session, error) {
	adapter, ok := h.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return adapter.LoadSessions(projectPath)
}

// LoadMessages loads the full message list of one session under one
// provider.
func (h *Hub) LoadMessages(provider, sessionPath string) ([]history.Message, error) {
	adapter, ok := h.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return adapter.LoadMessages(sessionPath)
}

// Search queries the selected providers, merges the matches and ranks the
// merged set by relevance. The limit applies after the merge, so every
// provider gets an equal chance to contribute.
func (h *Hub) Search(query string, providers []string, limit int) ([]SearchResult, []Warning, error) {
	selected, err := h.resolve(providers)
	if err != nil {
		return nil, nil, err
	}

	var (
		mu      sync.Mutex
		matches []history.Message
	)
	warnings := h.fanOut(selected, "search", func(a adapters.Adapter) error {
		found, err := a.Search(query, limit)
		if err != nil {
			return err
		}
		mu.Lock()
		matches = append(matches, found...)
		mu.Unlock()
		return nil
	})

	return search.Rank(query, matches, limit), warnings, nil
}
