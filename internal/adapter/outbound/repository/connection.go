package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConnections = 10
	pingTimeout           = 5 * time.Second
)

// DatabaseConfig represents database connection configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	Database        string
	Username        string
	Password        string
	Schema          string
	MaxConnections  int
	MinConnections  int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	SSLMode         string
}

// Validate validates the database configuration.
func (c DatabaseConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if c.Database == "" {
		return errors.New("database is required")
	}
	if c.Username == "" {
		return errors.New("username is required")
	}
	return nil
}

// ConnString renders the configuration as a libpq keyword/value connection string.
func (c DatabaseConfig) ConnString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	schema := c.Schema
	if schema == "" {
		schema = "public"
	}
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s search_path=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, sslMode, schema,
	)
}

// NewDatabaseConnection creates a new database connection pool.
func NewDatabaseConnection(ctx context.Context, config DatabaseConfig) (*pgxpool.Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return NewDatabaseConnectionFromString(ctx, config.ConnString(), config)
}

// NewDatabaseConnectionFromString creates a pool from a connection string or URL, applying the
// pool sizing of config.
func NewDatabaseConnectionFromString(
	ctx context.Context,
	connString string,
	config DatabaseConfig,
) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = defaultMaxConnections
	if config.MaxConnections > 0 {
		poolConfig.MaxConns = int32(config.MaxConnections) //nolint:gosec // validated by config
	}
	if config.MinConnections > 0 {
		poolConfig.MinConns = int32(config.MinConnections) //nolint:gosec // validated by config
	}
	if config.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = config.ConnMaxLifetime
	}
	if config.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.ConnMaxIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if pingErr := pool.Ping(pingCtx); pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return pool, nil
}

// DatabaseHealthChecker reports whether the database answers.
type DatabaseHealthChecker struct {
	pool *pgxpool.Pool
}

// NewDatabaseHealthChecker creates a new health checker.
func NewDatabaseHealthChecker(pool *pgxpool.Pool) *DatabaseHealthChecker {
	return &DatabaseHealthChecker{pool: pool}
}

// Name identifies the dependency in health reports.
func (h *DatabaseHealthChecker) Name() string { return "database" }

// Check pings the database.
func (h *DatabaseHealthChecker) Check(ctx context.Context) error {
	if h.pool == nil {
		return ErrConnectionFailed
	}
	if err := h.pool.Ping(ctx); err != nil {
		return WrapError(err, "ping")
	}
	return nil
}
