// Package httpd implements the httpd command: a read-only HTTP API over
// the document store and source catalog.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/goinsight/cmd/common"
)

const shutdownTimeout = 10 * time.Second

// Command returns the httpd command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Serve the read-only HTTP API",
		Long: `Serves documents, topic aggregates, site graphs, and refresh
statuses over HTTP. The API is read-only; all writes go through the
scheduler.`,
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

			registry, err := deps.LoadRegistry()
			if err != nil {
				return err
			}

			server := &http.Server{
				Addr:         deps.Config.Server.Address,
				Handler:      newRouter(deps, st, registry),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				deps.Logger.Info("http server starting", "address", server.Addr)
				if serveErr := server.ListenAndServe(); serveErr != nil &&
					!errors.Is(serveErr, http.ErrServerClosed) {
					errCh <- serveErr
				}
			}()

			select {
			case serveErr := <-errCh:
				return fmt.Errorf("http server: %w", serveErr)
			case <-ctx.Done():
			}

			deps.Logger.Info("http server stopping")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
				return fmt.Errorf("http server shutdown: %w", shutdownErr)
			}
			return nil
		},
	}
}
