// Package cmd implements the command-line interface for goinsight.
// It provides the root command and subcommands for crawling sources,
// running the refresh scheduler, and inspecting pipeline state.
package cmd

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/goinsight/cmd/common"
	"github.com/jonesrussell/goinsight/cmd/crawl"
	"github.com/jonesrussell/goinsight/cmd/httpd"
	cmdscheduler "github.com/jonesrussell/goinsight/cmd/scheduler"
	cmdsources "github.com/jonesrussell/goinsight/cmd/sources"
	"github.com/jonesrussell/goinsight/cmd/status"
	cmdtopics "github.com/jonesrussell/goinsight/cmd/topics"
)

var rootCmd = &cobra.Command{
	Use:   "goinsight",
	Short: "Site graph crawler and topic aggregation pipeline",
	Long: `goinsight crawls configured websites into per-source site graphs,
discovers insight pages through structural heuristics, deduplicates
documents across sources, and aggregates them by topic.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment overrides are visible to viper.
	_ = godotenv.Load()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cmdcommon.ConfigFile,
		"config",
		"",
		"config file (default is ./config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&cmdcommon.Debug,
		"debug",
		false,
		"enable debug logging",
	)

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(cmdscheduler.Command())
	rootCmd.AddCommand(cmdsources.Command())
	rootCmd.AddCommand(cmdtopics.Command())
	rootCmd.AddCommand(status.Command())
	rootCmd.AddCommand(httpd.Command())
}
