package cmd

import (
	"snippetcorpus/internal/adapter/outbound/repository"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Create the projects and challenges tables with their indexes.

The schema is applied in one transaction and is safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			factory := NewServiceFactory(GetConfig())
			defer factory.Close()

			pool, err := factory.DatabasePool(cmd.Context())
			if err != nil {
				return err
			}
			return repository.Migrate(cmd.Context(), pool)
		},
	}
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern
	rootCmd.AddCommand(newMigrateCmd())
}
