package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"snippetcorpus/internal/domain/service"
	"snippetcorpus/internal/domain/valueobject"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable that overrides a configuration key.
const EnvPrefix = "SNIPPETCORPUS"

// Config holds the complete application configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Corpus   CorpusConfig   `mapstructure:"corpus"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Import   ImportConfig   `mapstructure:"import"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Log      LogConfig      `mapstructure:"log"`
}

// APIConfig holds API server configuration.
type APIConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns host:port.
func (a APIConfig) Address() string {
	return a.Host + ":" + a.Port
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	// URL, when set, takes precedence over the individual connection fields.
	URL            string `mapstructure:"url"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Name           string `mapstructure:"name"`
	Schema         string `mapstructure:"schema"`
	SSLMode        string `mapstructure:"sslmode"`
	MaxConnections int    `mapstructure:"max_connections"`
	MinConnections int    `mapstructure:"min_connections"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// CorpusConfig configures extraction, validation and persistence of challenges.
type CorpusConfig struct {
	ReposDir       string                   `mapstructure:"repos_dir"`
	BatchSize      int                      `mapstructure:"batch_size"`
	ExtractWorkers int                      `mapstructure:"extract_workers"`
	Validation     service.ValidationConfig `mapstructure:"validation"`
	DefaultProject DefaultProjectConfig     `mapstructure:"default_project"`
	LanguageCache  LanguageCacheConfig      `mapstructure:"language_cache"`
}

// DefaultProjectConfig is the identity and metadata of the project that owns challenges
// synthesized from the local repository pool.
type DefaultProjectConfig struct {
	FullName      string `mapstructure:"full_name"`
	HTMLURL       string `mapstructure:"html_url"`
	Stars         int    `mapstructure:"stars"`
	LicenseName   string `mapstructure:"license_name"`
	OwnerAvatar   string `mapstructure:"owner_avatar"`
	DefaultBranch string `mapstructure:"default_branch"`
}

// LanguageCacheConfig sizes the language listing cache. A zero TTL disables it.
type LanguageCacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// GitHubConfig configures the GitHub connector used by the import flow.
type GitHubConfig struct {
	Token      string        `mapstructure:"token"`
	BaseURL    string        `mapstructure:"base_url"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ImportConfig configures the remote import flow.
type ImportConfig struct {
	ProjectsFile string `mapstructure:"projects_file"`
	// Publish sends extracted batches to NATS instead of importing them in-process.
	Publish   bool `mapstructure:"publish"`
	BatchSize int  `mapstructure:"batch_size"`
}

// WorkerConfig holds import worker configuration.
type WorkerConfig struct {
	QueueGroup  string        `mapstructure:"queue_group"`
	DurableName string        `mapstructure:"durable_name"`
	AckWait     time.Duration `mapstructure:"ack_wait"`
	MaxDeliver  int           `mapstructure:"max_deliver"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.read_timeout", "10s")
	v.SetDefault("api.write_timeout", "60s")
	v.SetDefault("api.request_timeout", "45s")
	v.SetDefault("api.shutdown_timeout", "15s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "snippetcorpus")
	v.SetDefault("database.name", "snippetcorpus")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", 5)
	v.SetDefault("nats.reconnect_wait", "2s")

	validation := service.DefaultValidationConfig()
	v.SetDefault("corpus.repos_dir", "/app/repos")
	v.SetDefault("corpus.batch_size", 10)
	v.SetDefault("corpus.extract_workers", 4)
	v.SetDefault("corpus.validation.min_length", validation.MinLength)
	v.SetDefault("corpus.validation.max_length", validation.MaxLength)
	v.SetDefault("corpus.validation.max_lines", validation.MaxLines)
	v.SetDefault("corpus.validation.max_line_length", validation.MaxLineLength)
	v.SetDefault("corpus.default_project.full_name", "nzlz/speedtyper")
	v.SetDefault("corpus.default_project.html_url", "https://github.com/nzlz/speedtyper")
	v.SetDefault("corpus.default_project.stars", 0)
	v.SetDefault("corpus.default_project.license_name", "MIT")
	v.SetDefault("corpus.default_project.owner_avatar", "https://github.com/identicons/nzlz.png")
	v.SetDefault("corpus.default_project.default_branch", "main")
	v.SetDefault("corpus.language_cache.size", 8)
	v.SetDefault("corpus.language_cache.ttl", "1m")

	v.SetDefault("github.max_retries", 3)
	v.SetDefault("github.timeout", "30s")

	v.SetDefault("import.projects_file", "/app/.repos")
	v.SetDefault("import.publish", false)
	v.SetDefault("import.batch_size", 50)

	v.SetDefault("worker.queue_group", "challenge-importers")
	v.SetDefault("worker.durable_name", "challenge-importer")
	v.SetDefault("worker.ack_wait", "2m")
	v.SetDefault("worker.max_deliver", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// BindEnv makes every key overridable through SNIPPETCORPUS_<SECTION>_<KEY> variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// New creates a new Config instance from Viper. It panics on invalid configuration.
func New(v *viper.Viper) *Config {
	config, err := Load(v)
	if err != nil {
		panic(err)
	}
	return config
}

//nolint:gochecknoglobals // fixed lookup table
var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		if c.Database.User == "" {
			errs = append(errs, errors.New("database.user is required"))
		}
		if c.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required"))
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			errs = append(errs, errors.New("database.port must be between 1 and 65535"))
		}
	}

	if c.Corpus.ReposDir == "" {
		errs = append(errs, errors.New("corpus.repos_dir is required"))
	}
	if c.Corpus.BatchSize < 1 {
		errs = append(errs, errors.New("corpus.batch_size must be at least 1"))
	}
	if c.Corpus.ExtractWorkers < 1 {
		errs = append(errs, errors.New("corpus.extract_workers must be at least 1"))
	}
	if err := validateBounds(c.Corpus.Validation); err != nil {
		errs = append(errs, err)
	}
	if _, err := valueobject.NewProjectName(c.Corpus.DefaultProject.FullName); err != nil {
		errs = append(errs, fmt.Errorf("corpus.default_project.full_name: %w", err))
	}
	if c.Corpus.LanguageCache.TTL < 0 {
		errs = append(errs, errors.New("corpus.language_cache.ttl cannot be negative"))
	}

	if c.GitHub.MaxRetries < 0 {
		errs = append(errs, errors.New("github.max_retries cannot be negative"))
	}
	if c.Import.BatchSize < 1 {
		errs = append(errs, errors.New("import.batch_size must be at least 1"))
	}
	if c.Worker.MaxDeliver < 1 {
		errs = append(errs, errors.New("worker.max_deliver must be at least 1"))
	}

	if !logLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	return errors.Join(errs...)
}

func validateBounds(v service.ValidationConfig) error {
	switch {
	case v.MinLength < 0:
		return errors.New("corpus.validation.min_length cannot be negative")
	case v.MaxLength < v.MinLength:
		return errors.New("corpus.validation.max_length must not be below min_length")
	case v.MaxLines < 1:
		return errors.New("corpus.validation.max_lines must be at least 1")
	case v.MaxLineLength < 1:
		return errors.New("corpus.validation.max_line_length must be at least 1")
	}
	return nil
}
