package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewSearchCommand creates the search command
func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search message content across providers, ranked by relevance",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}
	cmd.Flags().StringSliceVar(&searchProviders, "provider", nil, "Providers to search (repeatable). Default: all")
	cmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")
	return cmd
}

var (
	searchProviders []string
	searchLimit     int
)

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	h, err := newHub()
	if err != nil {
		return err
	}

	results, warnings, err := h.Search(query, searchProviders, searchLimit)
	if err != nil {
		return err
	}
	printWarnings(warnings)

	if jsonOutput {
		return printJSON(results)
	}

	if len(results) == 0 {
		fmt.Printf("No matches for '%s'\n", query)
		return nil
	}

	fmt.Printf("Results for '%s':\n", query)
	fmt.Println("=================")
	for i, result := range results {
		fmt.Printf("%d. [%s] %s (score %.2f)\n", i+1, result.Message.Provider, result.Message.Timestamp, result.Score)
		if result.Message.SessionID != "" {
			fmt.Printf("   Session: %s\n", result.Message.SessionID)
		}
		fmt.Printf("   %s\n", result.Snippet)
		fmt.Println()
	}
	return nil
}
