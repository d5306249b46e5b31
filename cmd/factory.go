package cmd

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"snippetcorpus/internal/adapter/inbound/api"
	inmessaging "snippetcorpus/internal/adapter/inbound/messaging"
	"snippetcorpus/internal/adapter/inbound/service"
	"snippetcorpus/internal/adapter/outbound/cache"
	"snippetcorpus/internal/adapter/outbound/filewalker"
	"snippetcorpus/internal/adapter/outbound/github"
	outmessaging "snippetcorpus/internal/adapter/outbound/messaging"
	"snippetcorpus/internal/adapter/outbound/projectfile"
	"snippetcorpus/internal/adapter/outbound/repository"
	"snippetcorpus/internal/application/common/retry"
	"snippetcorpus/internal/application/common/slogger"
	appservice "snippetcorpus/internal/application/service"
	"snippetcorpus/internal/config"
	"snippetcorpus/internal/port/inbound"
	"snippetcorpus/internal/port/outbound"
	"snippetcorpus/internal/version"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
)

// ServiceFactory creates the adapters and services of one command run. The database pool
// and metrics are created once and shared.
type ServiceFactory struct {
	config *config.Config

	poolOnce sync.Once
	pool     *pgxpool.Pool
	poolErr  error

	metricsOnce sync.Once
	metrics     *appservice.CorpusMetrics
}

// NewServiceFactory creates a new ServiceFactory.
func NewServiceFactory(cfg *config.Config) *ServiceFactory {
	return &ServiceFactory{config: cfg}
}

// DatabasePool returns the shared connection pool, connecting on first use.
func (sf *ServiceFactory) DatabasePool(ctx context.Context) (*pgxpool.Pool, error) {
	sf.poolOnce.Do(func() {
		dbConfig := sf.databaseConfig()
		if url := sf.config.Database.URL; url != "" {
			sf.pool, sf.poolErr = repository.NewDatabaseConnectionFromString(ctx, url, dbConfig)
		} else {
			sf.pool, sf.poolErr = repository.NewDatabaseConnection(ctx, dbConfig)
		}
	})
	return sf.pool, sf.poolErr
}

func (sf *ServiceFactory) databaseConfig() repository.DatabaseConfig {
	db := sf.config.Database
	return repository.DatabaseConfig{
		Host:           db.Host,
		Port:           db.Port,
		Database:       db.Name,
		Username:       db.User,
		Password:       db.Password,
		Schema:         db.Schema,
		MaxConnections: db.MaxConnections,
		MinConnections: db.MinConnections,
		SSLMode:        db.SSLMode,
	}
}

// Metrics returns the corpus instruments, created on the global MeterProvider.
func (sf *ServiceFactory) Metrics() *appservice.CorpusMetrics {
	sf.metricsOnce.Do(func() {
		metrics, err := appservice.NewCorpusMetrics(otel.Meter(meterScope))
		if err != nil {
			slogger.WarnNoCtx("Corpus metrics disabled", slogger.Field("error", err.Error()))
			return
		}
		sf.metrics = metrics
	})
	return sf.metrics
}

// ChallengeRepository returns the PostgreSQL challenge store, behind the language listing
// cache unless its TTL is zero.
func (sf *ServiceFactory) ChallengeRepository(ctx context.Context) (outbound.ChallengeRepository, error) {
	pool, err := sf.DatabasePool(ctx)
	if err != nil {
		return nil, err
	}
	var challenges outbound.ChallengeRepository = repository.NewPostgreSQLChallengeRepository(pool)
	if lc := sf.config.Corpus.LanguageCache; lc.TTL > 0 {
		challenges = cache.NewLanguageCachingRepository(challenges, lc.Size, lc.TTL)
	}
	return challenges, nil
}

// ProjectRepository returns the PostgreSQL project store.
func (sf *ServiceFactory) ProjectRepository(ctx context.Context) (outbound.ProjectRepository, error) {
	pool, err := sf.DatabasePool(ctx)
	if err != nil {
		return nil, err
	}
	return repository.NewPostgreSQLProjectRepository(pool), nil
}

// CorpusService wires the challenge corpus service to storage and the local repository pool.
func (sf *ServiceFactory) CorpusService(ctx context.Context) (*appservice.ChallengeCorpusService, error) {
	challenges, err := sf.ChallengeRepository(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := sf.ProjectRepository(ctx)
	if err != nil {
		return nil, err
	}
	return appservice.NewChallengeCorpusService(
		challenges, projects, filewalker.NewWalker(), sf.config.Corpus, sf.Metrics(),
	), nil
}

// GitHubConnector builds the remote repository connector.
func (sf *ServiceFactory) GitHubConnector() (*github.Connector, error) {
	return github.NewConnector(sf.githubConfig())
}

func (sf *ServiceFactory) githubConfig() github.Config {
	gh := sf.config.GitHub
	retryConfig := retry.DefaultRetryConfig()
	retryConfig.MaxRetries = gh.MaxRetries

	cfg := github.Config{Token: gh.Token, BaseURL: gh.BaseURL, Retry: retryConfig}
	if gh.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: gh.Timeout}
	}
	return cfg
}

// ImportService builds the remote import flow. With import.publish set, batches go to NATS
// and the returned publisher must be closed by the caller.
func (sf *ServiceFactory) ImportService(
	ctx context.Context,
	projectsFile string,
) (*appservice.ImportService, *outmessaging.NATSChallengePublisher, error) {
	connector, err := sf.GitHubConnector()
	if err != nil {
		return nil, nil, err
	}
	projects, err := sf.ProjectRepository(ctx)
	if err != nil {
		return nil, nil, err
	}
	if projectsFile == "" {
		projectsFile = sf.config.Import.ProjectsFile
	}
	importCfg := appservice.ImportServiceConfig{
		BatchSize:  sf.config.Import.BatchSize,
		Validation: sf.config.Corpus.Validation,
	}

	if sf.config.Import.Publish {
		publisher, err := outmessaging.NewNATSChallengePublisher(sf.config.NATS)
		if err != nil {
			return nil, nil, err
		}
		if err := publisher.Connect(); err != nil {
			return nil, nil, err
		}
		svc, err := appservice.NewImportService(
			connector, projects, projectfile.NewReader(projectsFile), nil, publisher, importCfg, sf.Metrics(),
		)
		if err != nil {
			publisher.Close()
			return nil, nil, err
		}
		return svc, publisher, nil
	}

	corpus, err := sf.CorpusService(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc, err := appservice.NewImportService(
		connector, projects, projectfile.NewReader(projectsFile), corpus, nil, importCfg, sf.Metrics(),
	)
	return svc, nil, err
}

// Consumer builds the import worker's JetStream consumer.
func (sf *ServiceFactory) Consumer(ctx context.Context) (*inmessaging.NATSConsumer, error) {
	corpus, err := sf.CorpusService(ctx)
	if err != nil {
		return nil, err
	}
	return inmessaging.NewNATSConsumer(inmessaging.ConsumerConfigFrom(sf.config.Worker), sf.config.NATS, corpus)
}

// HealthService reports on the database plus any extra checkers.
func (sf *ServiceFactory) HealthService(ctx context.Context, extra ...outbound.HealthChecker) inbound.HealthService {
	// A failed pool leaves a nil pool, which the checker reports as unhealthy.
	pool, _ := sf.DatabasePool(ctx)
	checkers := append([]outbound.HealthChecker{repository.NewDatabaseHealthChecker(pool)}, extra...)
	return service.NewHealthServiceAdapter(version.GetVersion().Version, checkers...)
}

// CreateServer builds the HTTP API server.
func (sf *ServiceFactory) CreateServer(ctx context.Context) (*api.Server, error) {
	corpus, err := sf.CorpusService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge service: %w", err)
	}
	return api.NewServer(sf.config, sf.HealthService(ctx), corpus, api.NewDefaultErrorHandler())
}

// Close releases the database pool.
func (sf *ServiceFactory) Close() {
	if sf.pool != nil {
		sf.pool.Close()
	}
}
