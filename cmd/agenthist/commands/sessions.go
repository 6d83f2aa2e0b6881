package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSessionsCommand creates the sessions command
func NewSessionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <provider> <project-path>",
		Short: "List the sessions of one project, newest first",
		Long: `List the sessions of one project, newest first.

The project path is the virtual path printed by the projects command,
e.g. "agenthist sessions claude claude://-Users-me-app".`,
		Args: cobra.ExactArgs(2),
		RunE: runSessions,
	}
}

func runSessions(cmd *cobra.Command, args []string) error {
	provider, projectPath := args[0], args[1]

	h, err := newHub()
	if err != nil {
		return err
	}

	sessions, err := h.LoadSessions(provider, projectPath)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if jsonOutput {
		return printJSON(sessions)
	}

	if len(sessions) == 0 {
		fmt.Printf("No sessions found for '%s'\n", projectPath)
		return nil
	}

	fmt.Printf("Sessions for '%s':\n", projectPath)
	fmt.Println("===================================")
	for i, session := range sessions {
		title := session.Summary
		if title == "" {
			title = session.ID
		}
		fmt.Printf("%d. %s\n", i+1, truncate(title, 80))
		fmt.Printf("   Path: %s\n", session.Path)
		fmt.Printf("   Messages: %d\n", session.MessageCount)
		if session.LastMessageTime != "" {
			fmt.Printf("   Last Activity: %s\n", session.LastMessageTime)
		}
		if session.HasToolUse {
			fmt.Println("   Uses tools")
		}
		if session.HasErrors {
			fmt.Println("   Has tool errors")
		}
		fmt.Println()
	}
	return nil
}
