package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agenthist/agenthist/adapters"
	"github.com/agenthist/agenthist/hub"
)

var (
	debugMode  bool
	jsonOutput bool
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agenthist",
		Short: "Browse and search local AI coding assistant history",
		Long: `agenthist reads the on-disk conversation history of Claude Code,
Codex CLI, opencode, and Cursor and presents it through one uniform view.

Projects and sessions are addressed by virtual paths such as
claude://-Users-me-app or cursor://<composer-id>, as printed by the
projects and sessions commands.`,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Log skipped providers and decoding details to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of formatted text")

	rootCmd.AddCommand(NewProvidersCommand())
	rootCmd.AddCommand(NewProjectsCommand())
	rootCmd.AddCommand(NewSessionsCommand())
	rootCmd.AddCommand(NewMessagesCommand())
	rootCmd.AddCommand(NewSearchCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newHub builds the provider façade from the process environment.
func newHub() (*hub.Hub, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.WarnLevel)
	if debugMode {
		logger = logger.Level(zerolog.DebugLevel)
	}

	paths, err := adapters.LoadPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return hub.New(adapters.Registry(paths), logger), nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printWarnings reports providers that failed to contribute. Warnings go to
// stderr so piped stdout stays clean.
func printWarnings(warnings []hub.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s (%s): %s\n", w.Provider, w.Op, w.Message)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
