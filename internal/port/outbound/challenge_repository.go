package outbound

import (
	"context"

	"snippetcorpus/internal/domain/entity"
)

// ChallengeRepository defines the outbound port for challenge persistence.
//
// Content is the conflict key: writing a challenge whose content already exists updates the
// stored language and path, and skips the write when neither differs.
type ChallengeRepository interface {
	// UpsertBatch writes all challenges in one statement. Any failure fails the whole batch.
	UpsertBatch(ctx context.Context, challenges []*entity.Challenge) error
	// Save writes a single challenge with the same conflict semantics as UpsertBatch.
	Save(ctx context.Context, challenge *entity.Challenge) error
	// FindRandom returns one stored challenge chosen at random, restricted to language when it
	// is non-empty. It returns nil and no error when nothing matches.
	FindRandom(ctx context.Context, language string) (*entity.Challenge, error)
	FindDistinctLanguages(ctx context.Context) ([]string, error)
}

// ProjectRepository defines the outbound port for project persistence.
type ProjectRepository interface {
	// FindByFullName returns nil and no error when no project has that name.
	FindByFullName(ctx context.Context, fullName string) (*entity.Project, error)
	// Save inserts the project. When a project with the same full name already exists the
	// stored one is left untouched and returned.
	Save(ctx context.Context, project *entity.Project) (*entity.Project, error)
}
