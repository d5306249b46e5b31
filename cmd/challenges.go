package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newRandomCmd() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Print a random challenge",
		Long: `Print one random challenge as JSON.

When the store holds nothing for the language, the local repository pool
(corpus.repos_dir) is walked and the extracted challenges are stored first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			metrics := newMetricsRuntime()
			defer metrics.LogSummary(cmd.Context())

			factory := NewServiceFactory(GetConfig())
			defer factory.Close()

			corpus, err := factory.CorpusService(cmd.Context())
			if err != nil {
				return err
			}
			challenge, err := corpus.GetRandomChallenge(cmd.Context(), strings.ToLower(strings.TrimSpace(language)))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), challenge)
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "language identifier, e.g. rust")
	return cmd
}

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages of the stored challenges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			factory := NewServiceFactory(GetConfig())
			defer factory.Close()

			corpus, err := factory.CorpusService(cmd.Context())
			if err != nil {
				return err
			}
			languages, err := corpus.ListLanguages(cmd.Context())
			if err != nil {
				return err
			}
			for _, lang := range languages {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", lang.Language, lang.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern
	rootCmd.AddCommand(newRandomCmd(), newLanguagesCmd())
}
