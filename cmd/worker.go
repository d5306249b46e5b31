package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"snippetcorpus/internal/application/common/slogger"

	"github.com/spf13/cobra"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Start the import worker",
		Long: `Start the worker that stores challenge batches published by "import --publish".

The worker:
- Joins the durable JetStream consumer in its queue group
- Imports each batch through the challenge store
- Terminates malformed batches and redelivers batches that failed to persist`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context())
		},
	}
}

func runWorker(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	metrics := newMetricsRuntime()
	factory := NewServiceFactory(cfg)
	defer factory.Close()

	consumer, err := factory.Consumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	if err := consumer.Start(ctx); err != nil {
		return err
	}
	slogger.Info(ctx, "Import worker started", slogger.Fields3(
		"subject", consumer.Subject(),
		"queue_group", consumer.QueueGroup(),
		"durable_name", consumer.DurableName(),
	))

	<-ctx.Done()
	slogger.InfoNoCtx("Shutdown signal received, stopping import worker", nil)

	if err := consumer.Stop(); err != nil {
		slogger.ErrorNoCtx("Failed to stop consumer", slogger.Field("error", err.Error()))
	}
	stats := consumer.Stats()
	slogger.InfoNoCtx("Import worker stopped", slogger.Fields{
		"messages_received":    stats.MessagesReceived,
		"messages_processed":   stats.MessagesProcessed,
		"messages_terminated":  stats.MessagesTerminated,
		"challenges_persisted": stats.ChallengesPersisted,
	})
	metrics.LogSummary(context.Background())
	return nil
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern
	rootCmd.AddCommand(newWorkerCmd())
}
