// Package topics implements the topics command: inspecting the taxonomy
// and exporting aggregated documents per topic.
package topics

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/goinsight/cmd/common"
	topicspkg "github.com/jonesrussell/goinsight/internal/topics"
)

// Command returns the topics command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Inspect topic aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(listCommand())
	cmd.AddCommand(exportCommand())
	return cmd
}

// listCommand prints each topic with its aggregate document count.
func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List topics and their document counts",
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

			counts := make(map[string]int)
			aggregates, err := st.TopicAggregates()
			if err != nil {
				return err
			}
			for _, agg := range aggregates {
				counts[agg.TopicID] = len(agg.Fingerprints)
			}

			taxonomy := deps.Config.Topics
			if len(taxonomy) == 0 {
				taxonomy = topicspkg.DefaultTaxonomy()
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Topic", "Tags", "Documents"})
			for i := range taxonomy {
				topic := &taxonomy[i]
				t.AppendRow(table.Row{
					topic.ID,
					strings.Join(topic.Tags, ", "),
					counts[topic.ID],
				})
			}
			t.Render()
			return nil
		},
	}
}

// exportEntry is one document in the export file, in aggregate order.
type exportEntry struct {
	Fingerprint string    `json:"fingerprint"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Sources     []string  `json:"sources"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// exportCommand writes every topic's documents as JSON, most recent first.
func exportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export topic aggregates as JSON",
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

			aggregates, err := st.TopicAggregates()
			if err != nil {
				return err
			}

			export := make(map[string][]exportEntry, len(aggregates))
			for _, agg := range aggregates {
				entries := make([]exportEntry, 0, len(agg.Fingerprints))
				for _, fp := range agg.Fingerprints {
					doc, docErr := st.Document(fp)
					if docErr != nil {
						return docErr
					}
					if doc == nil {
						continue
					}
					entries = append(entries, exportEntry{
						Fingerprint: doc.Fingerprint,
						URL:         doc.URL,
						Title:       doc.Title,
						Sources:     doc.SourceSlugs,
						LastSeenAt:  doc.LastSeenAt,
					})
				}
				export[agg.TopicID] = entries
			}

			data, err := json.MarshalIndent(export, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal export: %w", err)
			}

			if out == "" || out == "-" {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Printf("exported %d topics to %s\n", len(export), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
