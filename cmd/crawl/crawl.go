// Package crawl implements the one-shot crawl command: refresh a single
// source's site graph and ingest its candidates.
package crawl

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/goinsight/cmd/common"
	"github.com/jonesrussell/goinsight/internal/domain"
)

// Command returns the crawl command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl [slug]",
		Short: "Refresh one source's site graph, or all sources",
		Long: `Runs a single refresh: expands site graphs from the seed URLs,
classifies insight candidates, and ingests them into the topic
aggregates. With a slug argument only that source runs; without one,
every catalog source runs once. Graphs persist, so repeated runs resume
from the unvisited frontier.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("initialize dependencies: %w", err)
			}

			pipeline, err := deps.BuildPipeline()
			if err != nil {
				return err
			}
			defer pipeline.Close()

			var statuses []domain.SourceStatus
			if len(args) == 1 {
				status, refreshErr := pipeline.Scheduler.RefreshSource(cmd.Context(), args[0])
				if refreshErr != nil {
					return fmt.Errorf("refresh %q: %w", args[0], refreshErr)
				}
				statuses = []domain.SourceStatus{status}
			} else {
				statuses = pipeline.Scheduler.RunCycle(cmd.Context())
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Source", "Visited", "Documents", "Failed", "Error"})
			failed := 0
			for _, status := range statuses {
				if status.Failed {
					failed++
				}
				t.AppendRow(table.Row{
					status.Slug,
					status.NodesVisited,
					status.DocumentsFound,
					status.Failed,
					status.ErrorSummary,
				})
			}
			t.Render()

			if failed > 0 {
				return fmt.Errorf("%d of %d sources failed", failed, len(statuses))
			}
			return nil
		},
	}
}
