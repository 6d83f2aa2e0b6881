package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewProvidersCommand creates the providers command
func NewProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported providers and whether each was detected",
		Args:  cobra.NoArgs,
		RunE:  runProviders,
	}
}

func runProviders(cmd *cobra.Command, args []string) error {
	h, err := newHub()
	if err != nil {
		return err
	}

	infos := h.Providers()
	if jsonOutput {
		return printJSON(infos)
	}

	fmt.Println("Providers:")
	fmt.Println("==========")
	for _, info := range infos {
		status := "not detected"
		if info.Available {
			status = "detected"
		}
		fmt.Printf("%-10s %s (%s)\n", info.ID, info.DisplayName, status)
		if info.BasePath != "" {
			fmt.Printf("           %s\n", info.BasePath)
		}
	}
	return nil
}
