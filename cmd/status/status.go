// Package status implements the status command: the per-source outcome of
// the most recent refresh cycle.
package status

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/goinsight/cmd/common"
	"github.com/jonesrussell/goinsight/internal/store"
)

// Command returns the status command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show each source's latest refresh outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("initialize dependencies: %w", err)
			}
			st, err := deps.OpenStore()
			if err != nil {
				return err
			}
			defer st.Close()

			statuses, err := st.Statuses()
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				fmt.Println("no refresh cycles recorded yet")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Source", "Last Run", "Visited", "Documents", "Failed", "Error"})
			healthy := 0
			for _, s := range statuses {
				if !s.Failed {
					healthy++
				}
				t.AppendRow(table.Row{
					s.Slug,
					s.LastRun.Format("2006-01-02 15:04:05"),
					s.NodesVisited,
					s.DocumentsFound,
					s.Failed,
					s.ErrorSummary,
				})
			}
			t.Render()

			return renderCensus(st, healthy, len(statuses))
		},
	}
}

// renderCensus prints the pipeline-wide totals: source health, stored
// documents, and topic coverage.
func renderCensus(st *store.Store, healthy, total int) error {
	docs, err := st.Documents()
	if err != nil {
		return err
	}
	aggregates, err := st.TopicAggregates()
	if err != nil {
		return err
	}

	covered := 0
	for _, agg := range aggregates {
		if len(agg.Fingerprints) > 0 {
			covered++
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Sources Healthy", "Documents", "Topics Covered"})
	t.AppendRow(table.Row{
		fmt.Sprintf("%d/%d", healthy, total),
		len(docs),
		covered,
	})
	t.Render()
	return nil
}
