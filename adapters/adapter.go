// Package adapters turns each supported tool's on-disk conversation storage
// into the canonical history model. One adapter per provider; every adapter
// owns its decoding strategy and storage access and validates all untrusted
// identifiers before touching the filesystem or a store.
package adapters

import (
	"errors"

	"github.com/agenthist/agenthist/history"
)

// ErrNotFound reports that a provider's storage could not be located (tool
// not installed, base path unresolved). The façade treats it as "contributes
// nothing"; direct single-provider calls surface it to the caller.
var ErrNotFound = errors.New("provider not found")

// ProviderInfo describes a detected provider installation.
type ProviderInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	BasePath    string `json:"base_path,omitempty"`
	Available   bool   `json:"available"`
}

// Adapter is the uniform contract every provider implements. All operations
// read provider storage fresh on each call and return canonical values; no
// adapter caches or mutates anything.
type Adapter interface {
	// Name returns the provider tag (e.g. "cursor").
	Name() string

	// Detect reports whether the provider's storage exists on this machine.
	Detect() ProviderInfo

	// ScanProjects lists all conversation workspaces for this provider.
	ScanProjects() ([]history.Project, error)

	// LoadSessions lists the sessions of one project, addressed by its
	// virtual path (bare ids are tolerated).
	LoadSessions(projectPath string) ([]history.Session, error)

	// LoadMessages decodes the full message list of one session, addressed
	// by its virtual path.
	LoadMessages(sessionPath string) ([]history.Message, error)

	// Search returns up to limit messages whose content matches query,
	// case-insensitively.
	Search(query string, limit int) ([]history.Message, error)
}

// Registry builds the full adapter set for the given paths, keyed by
// provider tag. This is the single place providers are registered.
func Registry(paths Paths) map[string]Adapter {
	return map[string]Adapter{
		history.ProviderClaude:   NewClaudeAdapter(paths),
		history.ProviderCodex:    NewCodexAdapter(paths),
		history.ProviderOpencode: NewOpencodeAdapter(paths),
		history.ProviderCursor:   NewCursorAdapter(paths),
	}
}
