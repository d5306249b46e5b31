package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snippetcorpus/internal/application/common/slogger"

	"github.com/spf13/cobra"
)

const startTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server used by the typing application.

The server provides endpoints for:
- Health checks
- Random challenges, optionally filtered by language
- The languages available in the store
- Importing externally produced challenges`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := newMetricsRuntime()
	factory := NewServiceFactory(GetConfig())
	defer factory.Close()

	server, err := factory.CreateServer(ctx)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := server.Start(startCtx); err != nil {
		return err
	}

	<-ctx.Done()
	slogger.InfoNoCtx("Shutdown signal received, stopping API server", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), GetConfig().API.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}
	metrics.LogSummary(shutdownCtx)
	slogger.InfoNoCtx("API server shut down gracefully", nil)
	return nil
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern
	rootCmd.AddCommand(newServeCmd())
}
