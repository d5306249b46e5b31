package cmd

import (
	"snippetcorpus/internal/version"

	"github.com/spf13/cobra"
)

// Version information set via ldflags during build. They take precedence over the
// version package variables when set.
//
//nolint:gochecknoglobals // Required for build-time injection via ldflags.
var (
	Version   string
	Commit    string
	BuildTime string
)

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// Printing the version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd, short)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Show only version number")
	return cmd
}

func runVersion(cmd *cobra.Command, short bool) error {
	if Version != "" || Commit != "" || BuildTime != "" {
		version.SetBuildVars(Version, Commit, BuildTime)
	}
	return version.GetVersion().Write(cmd.OutOrStdout(), short)
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern
	rootCmd.AddCommand(newVersionCmd())
}
