// Package commands provides the cobra commands of the snippetcorpus API client.
package commands

import (
	"snippetcorpus/internal/client"

	"github.com/spf13/cobra"
)

const clientVersion = "1.0.0"

// Flag names for persistent global flags.
const (
	flagAPIURL  = "api-url"
	flagTimeout = "timeout"
)

// NewRootCmd creates the root command of the client. Every subcommand writes a JSON
// envelope to stdout.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "snippetcorpus-client",
		Short:        "CLI client for the snippetcorpus API",
		Version:      clientVersion,
		SilenceUsage: true,
	}

	defaults, err := client.LoadConfig()
	if err != nil {
		d := client.DefaultConfig()
		defaults = &d
	}
	cmd.PersistentFlags().String(flagAPIURL, defaults.APIURL, "API server URL")
	cmd.PersistentFlags().Duration(flagTimeout, defaults.Timeout, "Request timeout")

	cmd.AddCommand(NewHealthCmd(), NewRandomCmd(), NewLanguagesCmd(), NewImportCmd())
	return cmd
}
