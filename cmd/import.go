package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var projectsFile string

	cmd := &cobra.Command{
		Use:   "import [owner/repo ...]",
		Short: "Import challenges from GitHub repositories",
		Long: `Harvest challenges from GitHub repositories.

Without arguments the repositories of the project list (import.projects_file)
are imported. Each repository's default branch is fetched, every file of a
known language is run through the extractor, and the accepted blocks are
either stored directly or, with --publish, sent to the import worker over NATS.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics := newMetricsRuntime()
			defer metrics.LogSummary(cmd.Context())

			factory := NewServiceFactory(GetConfig())
			defer factory.Close()

			importer, publisher, err := factory.ImportService(cmd.Context(), projectsFile)
			if err != nil {
				return err
			}
			if publisher != nil {
				defer publisher.Close()
			}

			summary, err := importer.ImportProjects(cmd.Context(), args)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), summary); err != nil {
				return err
			}
			if summary.Projects > 0 && len(summary.FailedProjects) == summary.Projects {
				return errors.New("every project failed to import")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectsFile, "projects-file", "", "project list file (default: import.projects_file)")
	cmd.Flags().Bool("publish", false, "publish batches to NATS instead of storing them directly")
	if err := vp.BindPFlag("import.publish", cmd.Flags().Lookup("publish")); err != nil {
		panic(err)
	}
	return cmd
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern
	rootCmd.AddCommand(newImportCmd())
}
