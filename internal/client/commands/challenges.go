package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/client"

	"github.com/spf13/cobra"
)

// NewHealthCmd creates the health check command.
func NewHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check API server health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return call(cmd, func(ctx context.Context, c *client.Client) (interface{}, error) {
				return c.Health(ctx)
			})
		},
	}
}

// NewRandomCmd creates the command that fetches a random challenge.
func NewRandomCmd() *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Fetch a random challenge",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return call(cmd, func(ctx context.Context, c *client.Client) (interface{}, error) {
				return c.RandomChallenge(ctx, language)
			})
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "language identifier, e.g. rust")
	return cmd
}

// NewLanguagesCmd creates the command that lists the stored languages.
func NewLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages of the stored challenges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return call(cmd, func(ctx context.Context, c *client.Client) (interface{}, error) {
				return c.Languages(ctx)
			})
		},
	}
}

// NewImportCmd creates the command that uploads a JSON array of challenges.
func NewImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import challenges from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			challenges, err := readChallenges(args[0])
			if err != nil {
				return client.WriteError(cmd.OutOrStdout(), errCodeInvalidArgument, err.Error(), nil)
			}
			return call(cmd, func(ctx context.Context, c *client.Client) (interface{}, error) {
				return c.ImportChallenges(ctx, challenges)
			})
		},
	}
}

func readChallenges(path string) ([]dto.ChallengeImport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var challenges []dto.ChallengeImport
	if err := json.Unmarshal(data, &challenges); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(challenges) == 0 {
		return nil, fmt.Errorf("%s: no challenges", path)
	}
	return challenges, nil
}
