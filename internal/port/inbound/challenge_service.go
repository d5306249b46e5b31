// Package inbound defines the inbound ports (interfaces) for the application layer.
// These ports represent the entry points into the application's core business logic.
package inbound

import (
	"context"

	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/domain/valueobject"
)

// ChallengeService defines the inbound port for serving and importing challenges.
type ChallengeService interface {
	// GetRandomChallenge returns one challenge, populating the store from the local
	// repository pool when nothing is stored for language.
	GetRandomChallenge(ctx context.Context, language string) (*dto.ChallengeResponse, error)
	// ListLanguages returns the stored languages sorted by display name.
	ListLanguages(ctx context.Context) ([]valueobject.LanguageInfo, error)
	ImportChallenges(ctx context.Context, batch []dto.ChallengeImport) (*dto.UpsertReport, error)
}

// ImportService defines the inbound port for importing challenges from hosted repositories.
type ImportService interface {
	ImportProjects(ctx context.Context, projects []string) (*dto.ImportSummary, error)
}

// HealthService defines the inbound port for health check operations.
type HealthService interface {
	GetHealth(ctx context.Context) (*dto.HealthResponse, error)
}

// Consumer consumes import batches from the message queue.
type Consumer interface {
	Start(ctx context.Context) error
	Stop() error
	QueueGroup() string
	Subject() string
	DurableName() string
}
