package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agenthist/agenthist/history"
)

// NewMessagesCommand creates the messages command
func NewMessagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages <provider> <session-path>",
		Short: "Show the full message list of one session",
		Long: `Show the full message list of one session.

The session path is the virtual path printed by the sessions command,
e.g. "agenthist messages claude claude://-Users-me-app/<uuid>".`,
		Args: cobra.ExactArgs(2),
		RunE: runMessages,
	}
	cmd.Flags().BoolVar(&messagesFull, "full", false, "Print full message text instead of a preview")
	return cmd
}

var messagesFull bool

func runMessages(cmd *cobra.Command, args []string) error {
	provider, sessionPath := args[0], args[1]

	h, err := newHub()
	if err != nil {
		return err
	}

	messages, err := h.LoadMessages(provider, sessionPath)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}

	if jsonOutput {
		return printJSON(messages)
	}

	if len(messages) == 0 {
		fmt.Printf("No messages found for '%s'\n", sessionPath)
		return nil
	}

	fmt.Printf("Messages for '%s' (%d):\n", sessionPath, len(messages))
	fmt.Println("================================================")
	for i, msg := range messages {
		fmt.Printf("\n%d. [%s] %s\n", i+1, msg.Role, msg.Timestamp)
		if msg.Model != "" {
			fmt.Printf("   Model: %s\n", msg.Model)
		}
		printContent(msg)
	}
	return nil
}

func printContent(msg history.Message) {
	for _, block := range msg.Content {
		switch block.Type {
		case history.BlockText:
			text := block.Text
			if !messagesFull {
				text = truncate(text, 200)
			}
			fmt.Printf("   %s\n", text)
		case history.BlockThinking:
			fmt.Printf("   (thinking, %d chars)\n", len(block.Thinking))
		case history.BlockToolUse:
			fmt.Printf("   -> tool: %s\n", block.Name)
		case history.BlockToolResult:
			status := "ok"
			if block.IsError != nil && *block.IsError {
				status = "error"
			}
			fmt.Printf("   <- tool result (%s)\n", status)
		}
	}
}
