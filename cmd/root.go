// Package cmd provides the command-line interface of snippetcorpus.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"snippetcorpus/internal/application/common/slogger"
	"snippetcorpus/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//nolint:gochecknoglobals // Standard Cobra CLI pattern
var (
	cfgFile string
	envFile string
	cfg     *config.Config
	vp      = viper.New()
)

//nolint:gochecknoglobals // Standard Cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "snippetcorpus",
	Short: "Typing challenge corpus built from real source code",
	Long: `SnippetCorpus harvests self-contained code blocks from source repositories and
serves them as typing challenges.

The system supports:
- Cold population from a local pool of cloned repositories
- Importing challenges from GitHub repositories
- Asynchronous import batches over NATS JetStream
- PostgreSQL storage with random retrieval per language`,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return initConfig() },
}

// Execute runs the root command. It is called by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.yaml)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "json", "Log format (json, text)")

	if err := vp.BindPFlag("log.level", flags.Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
	}
	if err := vp.BindPFlag("log.format", flags.Lookup("log-format")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-format flag: %v\n", err)
	}
}

func initConfig() error {
	loaded, err := loadConfig(vp, cfgFile, envFile)
	if err != nil {
		return err
	}
	if err := slogger.Configure(loaded.Log.Level, loaded.Log.Format); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	cfg = loaded
	return nil
}

// loadConfig layers defaults, the optional config file, the dotenv file and the environment.
func loadConfig(v *viper.Viper, configFile, dotenvFile string) (*config.Config, error) {
	if dotenvFile != "" {
		if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", dotenvFile, err)
		}
	}

	config.SetDefaults(v)
	config.BindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return config.Load(v)
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return cfg
}
