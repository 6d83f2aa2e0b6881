package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewProjectsCommand creates the projects command
func NewProjectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List conversation projects across providers, newest first",
		Args:  cobra.NoArgs,
		RunE:  runProjects,
	}
	cmd.Flags().StringSliceVar(&projectProviders, "provider", nil, "Providers to include (repeatable). Default: all")
	return cmd
}

var projectProviders []string

func runProjects(cmd *cobra.Command, args []string) error {
	h, err := newHub()
	if err != nil {
		return err
	}

	projects, warnings, err := h.ScanProjects(projectProviders)
	if err != nil {
		return err
	}
	printWarnings(warnings)

	if jsonOutput {
		return printJSON(projects)
	}

	if len(projects) == 0 {
		fmt.Println("No projects found")
		return nil
	}

	fmt.Println("Projects:")
	fmt.Println("=========")
	for i, project := range projects {
		fmt.Printf("%d. %s [%s]\n", i+1, project.Name, project.Provider)
		fmt.Printf("   Path: %s\n", project.Path)
		if project.ActualPath != "" {
			fmt.Printf("   Directory: %s\n", project.ActualPath)
		}
		fmt.Printf("   Sessions: %d\n", project.SessionCount)
		fmt.Printf("   Last Modified: %s\n", project.LastModified)
		fmt.Println()
	}
	return nil
}
