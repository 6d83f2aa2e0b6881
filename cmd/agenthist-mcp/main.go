// Package main implements an MCP (Model Context Protocol) server that exposes
// local AI coding assistant history over stdio.
//
// The server lets an AI assistant browse and search previous conversations
// from Claude Code, Codex CLI, opencode, and Cursor through one uniform
// tool surface.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/agenthist/agenthist/adapters"
	"github.com/agenthist/agenthist/hub"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel)
	if os.Getenv("AGENTHIST_DEBUG") != "" {
		logger = logger.Level(zerolog.DebugLevel)
	}

	paths, err := adapters.LoadPaths()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	h := hub.New(adapters.Registry(paths), logger)

	opts := &mcp.ServerOptions{
		Instructions: "This server provides access to local AI coding assistant history from Claude Code, Codex CLI, opencode, and Cursor. Use list_providers to see what is installed, list_projects and list_sessions to browse, get_session to read a full conversation, and search to find messages by content.",
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "agenthist-mcp",
		Version: "1.0.0",
	}, opts)

	addListProvidersTool(server, h)
	addListProjectsTool(server, h)
	addListSessionsTool(server, h)
	addGetSessionTool(server, h)
	addSearchTool(server, h)

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// textResult wraps a JSON-marshaled envelope in a tool result.
func textResult(envelope map[string]interface{}) (*mcp.CallToolResult, any, error) {
	resultJSON, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(resultJSON)},
		},
	}, nil, nil
}

// Tool 1: list_providers
type listProvidersArgs struct{}

func addListProvidersTool(server *mcp.Server, h *hub.Hub) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_providers",
		Description: "List the supported AI coding assistants and whether their local history was detected on this machine",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listProvidersArgs) (*mcp.CallToolResult, any, error) {
		providers := h.Providers()
		return textResult(map[string]interface{}{
			"providers": providers,
			"count":     len(providers),
		})
	})
}

// Tool 2: list_projects
type listProjectsArgs struct {
	Providers []string `json:"providers,omitempty" jsonschema:"Provider tags to include (claude, codex, opencode, cursor). Leave empty for all providers."`
}

func addListProjectsTool(server *mcp.Server, h *hub.Hub) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_projects",
		Description: "List conversation projects (workspaces) across providers, newest first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listProjectsArgs) (*mcp.CallToolResult, any, error) {
		projects, warnings, err := h.ScanProjects(args.Providers)
		if err != nil {
			return nil, nil, err
		}
		envelope := map[string]interface{}{
			"projects": projects,
			"count":    len(projects),
		}
		if len(warnings) > 0 {
			envelope["warnings"] = warnings
		}
		return textResult(envelope)
	})
}

// Tool 3: list_sessions
type listSessionsArgs struct {
	Provider    string `json:"provider" jsonschema:"The provider that owns the project (claude, codex, opencode, cursor)"`
	ProjectPath string `json:"project_path" jsonschema:"The project's virtual path as returned by list_projects (e.g. claude://-Users-me-app)"`
}

func addListSessionsTool(server *mcp.Server, h *hub.Hub) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List the sessions of one project, newest first, with summaries and message counts",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listSessionsArgs) (*mcp.CallToolResult, any, error) {
		if args.Provider == "" {
			return nil, nil, fmt.Errorf("provider is required")
		}
		if args.ProjectPath == "" {
			return nil, nil, fmt.Errorf("project_path is required")
		}

		sessions, err := h.LoadSessions(args.Provider, args.ProjectPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		return textResult(map[string]interface{}{
			"provider":     args.Provider,
			"project_path": args.ProjectPath,
			"sessions":     sessions,
			"count":        len(sessions),
		})
	})
}

// Tool 4: get_session
type getSessionArgs struct {
	Provider    string `json:"provider" jsonschema:"The provider that owns the session (claude, codex, opencode, cursor)"`
	SessionPath string `json:"session_path" jsonschema:"The session's virtual path as returned by list_sessions"`
	Page        int    `json:"page,omitempty" jsonschema:"Page number for pagination (0-indexed)"`
	PageSize    int    `json:"page_size,omitempty" jsonschema:"Number of messages per page"`
}

func addGetSessionTool(server *mcp.Server, h *hub.Hub) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_session",
		Description: "Get the full message list of a session with pagination support",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args getSessionArgs) (*mcp.CallToolResult, any, error) {
		if args.Provider == "" {
			return nil, nil, fmt.Errorf("provider is required")
		}
		if args.SessionPath == "" {
			return nil, nil, fmt.Errorf("session_path is required")
		}
		if args.PageSize <= 0 {
			args.PageSize = 50
		}
		if args.Page < 0 {
			args.Page = 0
		}

		messages, err := h.LoadMessages(args.Provider, args.SessionPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get session: %w", err)
		}

		total := len(messages)
		start, end := pageWindow(total, args.Page, args.PageSize)

		return textResult(map[string]interface{}{
			"provider":       args.Provider,
			"session_path":   args.SessionPath,
			"page":           args.Page,
			"page_size":      args.PageSize,
			"total_messages": total,
			"messages":       messages[start:end],
			"count":          end - start,
		})
	})
}

// pageWindow clamps a page selection to valid slice bounds over total
// messages. Out-of-range pages yield an empty window, never a panic.
func pageWindow(total, page, pageSize int) (start, end int) {
	if page < 0 {
		page = 0
	}
	if pageSize < 0 {
		pageSize = 0
	}
	start = page * pageSize
	if start > total {
		start = total
	}
	end = start + pageSize
	if end > total {
		end = total
	}
	return start, end
}

// Tool 5: search
type searchArgs struct {
	Query     string   `json:"query" jsonschema:"Search query to find in message content"`
	Providers []string `json:"providers,omitempty" jsonschema:"Provider tags to search (claude, codex, opencode, cursor). Leave empty for all providers."`
	Limit     int      `json:"limit,omitempty" jsonschema:"Maximum number of results to return"`
}

func addSearchTool(server *mcp.Server, h *hub.Hub) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Search message content across providers, ranked by relevance with contextual snippets",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args searchArgs) (*mcp.CallToolResult, any, error) {
		if args.Query == "" {
			return nil, nil, fmt.Errorf("query is required")
		}
		if args.Limit == 0 {
			args.Limit = 10
		}

		results, warnings, err := h.Search(args.Query, args.Providers, args.Limit)
		if err != nil {
			return nil, nil, err
		}
		envelope := map[string]interface{}{
			"query":   args.Query,
			"results": results,
			"count":   len(results),
		}
		if len(warnings) > 0 {
			envelope["warnings"] = warnings
		}
		return textResult(envelope)
	})
}
