// Package history defines the canonical project/session/message model that
// every provider adapter decodes into. All types are plain values constructed
// fresh per request; nothing here holds a reference back to provider storage.
package history

// Provider tags used in dispatch and in the Provider field of every entity.
const (
	ProviderClaude   = "claude"
	ProviderCodex    = "codex"
	ProviderOpencode = "opencode"
	ProviderCursor   = "cursor"
)

// Project is one conversation workspace. Its Path is an opaque virtual path
// (see the vpath package); identity is unique only within a provider, so
// cross-provider consumers must always qualify it with the Provider tag.
type Project struct {
	// Name is the human-readable project name (usually the folder basename).
	Name string `json:"name"`

	// Path is the virtual path addressing this project, e.g. "cursor://a1b2...".
	Path string `json:"path"`

	// ActualPath is the real filesystem path of the workspace, when resolvable.
	ActualPath string `json:"actual_path,omitempty"`

	// SessionCount is the number of sessions found under this project.
	SessionCount int `json:"session_count"`

	// MessageCount is a best-effort total; 0 when not eagerly computed.
	MessageCount int `json:"message_count"`

	// LastModified is the most recent activity timestamp, RFC 3339.
	LastModified string `json:"last_modified"`

	// Provider is the originating provider tag.
	Provider string `json:"provider"`
}

// Session is one conversation thread within a project. Sessions are built
// transiently from provider storage on every load; they are never cached.
type Session struct {
	// Path is the virtual session reference, e.g. "claude://-Users-dev-app/uuid".
	Path string `json:"path"`

	// ID is the provider-native session identifier.
	ID string `json:"id"`

	// ProjectName is the owning project's display name.
	ProjectName string `json:"project_name"`

	MessageCount     int    `json:"message_count"`
	FirstMessageTime string `json:"first_message_time"`
	LastMessageTime  string `json:"last_message_time"`
	HasToolUse       bool   `json:"has_tool_use"`
	HasErrors        bool   `json:"has_errors"`

	// Summary is an optional human title for the session.
	Summary string `json:"summary,omitempty"`

	Provider string `json:"provider"`
}

// Message is one canonical turn. Content is either nil or a non-empty block
// sequence; decoders collapse emptiness to nil and drop fully-empty turns
// rather than emitting blank messages.
type Message struct {
	ID        string         `json:"id"`
	ParentID  string         `json:"parent_id,omitempty"`
	SessionID string         `json:"session_id"`
	Timestamp string         `json:"timestamp"`
	Role      string         `json:"role"`
	Content   []ContentBlock `json:"content,omitempty"`

	Model      string      `json:"model,omitempty"`
	Usage      *TokenUsage `json:"usage,omitempty"`
	CostUSD    *float64    `json:"cost_usd,omitempty"`
	DurationMS *int64      `json:"duration_ms,omitempty"`

	Provider string `json:"provider"`
}

// TokenUsage records per-turn token accounting. Every field is independently
// optional; a nil pointer means the provider did not report that counter.
type TokenUsage struct {
	InputTokens              *int   `json:"input_tokens,omitempty"`
	OutputTokens             *int   `json:"output_tokens,omitempty"`
	CacheCreationInputTokens *int   `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *int   `json:"cache_read_input_tokens,omitempty"`
	ServiceTier              string `json:"service_tier,omitempty"`
}
