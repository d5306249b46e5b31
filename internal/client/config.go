package client

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultAPIURL  = "http://localhost:8080"
	DefaultTimeout = 30 * time.Second

	// EnvAPIURL overrides the API URL.
	EnvAPIURL = "SNIPPETCORPUS_CLIENT_API_URL"
	// EnvTimeout overrides the request timeout, as a duration string.
	EnvTimeout = "SNIPPETCORPUS_CLIENT_TIMEOUT"
)

// Config holds the client configuration for connecting to the API server.
type Config struct {
	// APIURL is the base URL of the API server, including the scheme.
	APIURL  string
	Timeout time.Duration
}

// DefaultConfig returns a Config pointing at a local server.
func DefaultConfig() Config {
	return Config{APIURL: DefaultAPIURL, Timeout: DefaultTimeout}
}

// LoadConfig loads configuration from the environment, falling back to defaults.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if apiURL := os.Getenv(EnvAPIURL); apiURL != "" {
		cfg.APIURL = apiURL
	}

	if timeoutStr, ok := os.LookupEnv(EnvTimeout); ok {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout duration in %s: %w", EnvTimeout, err)
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("invalid timeout value in %s: timeout must be positive, got %v", EnvTimeout, timeout)
		}
		cfg.Timeout = timeout
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("invalid configuration: API URL cannot be empty")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("invalid configuration: API URL must have http:// or https:// scheme, got %q", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid configuration: timeout must be positive, got %v", c.Timeout)
	}
	return nil
}
