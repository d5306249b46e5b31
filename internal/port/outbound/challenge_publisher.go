package outbound

import (
	"context"

	"snippetcorpus/internal/application/dto"
)

// ChallengeBatchPublisher publishes batches of challenges for asynchronous import.
type ChallengeBatchPublisher interface {
	PublishChallengeBatch(ctx context.Context, batch dto.ChallengeImportBatch) error
}

// ProjectListReader reads the list of projects to import.
type ProjectListReader interface {
	ReadProjects(ctx context.Context) ([]string, error)
}
