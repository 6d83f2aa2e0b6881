package adapters

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/kelseyhightower/envconfig"
)

// Paths holds the resolved storage overrides for every provider. It is
// loaded once at startup and threaded explicitly through the registry so
// decoding logic never reads process environment state.
type Paths struct {
	ClaudeHome     string `envconfig:"CLAUDE_HOME"`
	CodexHome      string `envconfig:"CODEX_HOME"`
	OpencodeHome   string `envconfig:"OPENCODE_HOME"`
	CursorDataHome string `envconfig:"CURSOR_DATA_HOME"`
	XDGDataHome    string `envconfig:"XDG_DATA_HOME"`
	XDGConfigHome  string `envconfig:"XDG_CONFIG_HOME"`

	// HomeDir overrides the user home directory; empty means os.UserHomeDir.
	HomeDir string `envconfig:"-"`
}

// LoadPaths resolves Paths from the environment.
func LoadPaths() (Paths, error) {
	var p Paths
	if err := envconfig.Process("", &p); err != nil {
		return Paths{}, err
	}
	return p, nil
}

func (p Paths) home() string {
	if p.HomeDir != "" {
		return p.HomeDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// dirExists probes a candidate base path; a default is only used when it is
// actually present on disk.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// claudeBase resolves the Claude Code data directory ($CLAUDE_HOME, then
// ~/.claude). Empty means the provider is not installed.
func (p Paths) claudeBase() string {
	if p.ClaudeHome != "" {
		if dirExists(p.ClaudeHome) {
			return p.ClaudeHome
		}
		return ""
	}
	if home := p.home(); home != "" {
		if candidate := filepath.Join(home, ".claude"); dirExists(candidate) {
			return candidate
		}
	}
	return ""
}

// codexBase resolves the Codex CLI home ($CODEX_HOME, then ~/.codex).
func (p Paths) codexBase() string {
	if p.CodexHome != "" {
		if dirExists(p.CodexHome) {
			return p.CodexHome
		}
		return ""
	}
	if home := p.home(); home != "" {
		if candidate := filepath.Join(home, ".codex"); dirExists(candidate) {
			return candidate
		}
	}
	return ""
}

// opencodeBase resolves the opencode data directory ($OPENCODE_HOME, then
// $XDG_DATA_HOME/opencode, then ~/.local/share/opencode).
func (p Paths) opencodeBase() string {
	if p.OpencodeHome != "" {
		if dirExists(p.OpencodeHome) {
			return p.OpencodeHome
		}
		return ""
	}
	if p.XDGDataHome != "" {
		if candidate := filepath.Join(p.XDGDataHome, "opencode"); dirExists(candidate) {
			return candidate
		}
	}
	if home := p.home(); home != "" {
		if candidate := filepath.Join(home, ".local", "share", "opencode"); dirExists(candidate) {
			return candidate
		}
	}
	return ""
}

// cursorBase resolves the Cursor "User" data directory ($CURSOR_DATA_HOME,
// then $XDG_CONFIG_HOME/Cursor/User, then the platform default).
func (p Paths) cursorBase() string {
	if p.CursorDataHome != "" {
		if dirExists(p.CursorDataHome) {
			return p.CursorDataHome
		}
		return ""
	}
	if p.XDGConfigHome != "" {
		if candidate := filepath.Join(p.XDGConfigHome, "Cursor", "User"); dirExists(candidate) {
			return candidate
		}
	}
	home := p.home()
	if home == "" {
		return ""
	}
	var candidate string
	switch runtime.GOOS {
	case "darwin":
		candidate = filepath.Join(home, "Library", "Application Support", "Cursor", "User")
	case "windows":
		candidate = filepath.Join(home, "AppData", "Roaming", "Cursor", "User")
	default:
		candidate = filepath.Join(home, ".config", "Cursor", "User")
	}
	if dirExists(candidate) {
		return candidate
	}
	return ""
}
