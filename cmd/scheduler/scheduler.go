// Package scheduler implements the scheduler command: the continuous
// refresh loop over every configured source.
package scheduler

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	cmdcommon "github.com/jonesrussell/goinsight/cmd/common"
)

// Command returns the scheduler command for use in the root command.
func Command() *cobra.Command {
	var once bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run the continuous refresh loop",
		Long: `Runs refresh cycles over every source in the catalog: one cycle
immediately, then one per configured interval. Each cycle refreshes
sources through a bounded worker pool; one source's failure never stops
the others. Stops cleanly on SIGINT or SIGTERM.`,
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if once {
				statuses := pipeline.Scheduler.RunCycle(ctx)
				failed := 0
				for i := range statuses {
					if statuses[i].Failed {
						failed++
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d sources failed", failed, len(statuses))
				}
				return nil
			}

			g, groupCtx := errgroup.WithContext(ctx)
			if watch {
				g.Go(func() error {
					return pipeline.Registry.Watch(groupCtx, deps.Config.App.SourcesFile)
				})
			}
			g.Go(func() error {
				return pipeline.Scheduler.Start(groupCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the source catalog when its file changes")
	return cmd
}
