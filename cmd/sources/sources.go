// Package sources implements the sources command: listing and validating
// the source catalog.
package sources

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/goinsight/cmd/common"
	sourcespkg "github.com/jonesrussell/goinsight/internal/sources"
)

// Command returns the sources command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage the source catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(listCommand())
	cmd.AddCommand(validateCommand())
	return cmd
}

// listCommand prints the configured sources in catalog order.
func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("initialize dependencies: %w", err)
			}
			registry, err := deps.LoadRegistry()
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Slug", "Name", "Seeds", "Topics", "Max Nodes", "Max Depth", "Last Refreshed"})
			for _, src := range registry.List() {
				lastRefreshed := "never"
				if src.LastRefreshedAt != nil {
					lastRefreshed = src.LastRefreshedAt.Format("2006-01-02 15:04:05")
				}
				t.AppendRow(table.Row{
					src.Slug,
					src.Name,
					len(src.SeedURLs),
					formatTags(src.TopicTags),
					src.MaxNodes,
					src.MaxDepth,
					lastRefreshed,
				})
			}
			t.Render()
			return nil
		},
	}
}

// validateCommand parses the catalog file and reports the first violation.
func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the source catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("initialize dependencies: %w", err)
			}

			path := deps.Config.App.SourcesFile
			list, err := sourcespkg.LoadFile(path)
			if err != nil {
				return fmt.Errorf("catalog %s invalid: %w", path, err)
			}
			fmt.Printf("catalog %s valid: %d sources\n", path, len(list))
			return nil
		},
	}
}

// formatTags renders the tag weights in stable order.
func formatTags(tags map[string]float64) string {
	keys := make([]string, 0, len(tags))
	for tag := range tags {
		keys = append(keys, tag)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
