package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"snippetcorpus/internal/application/common/slogger"
	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/domain/entity"
	domainservice "snippetcorpus/internal/domain/service"
	"snippetcorpus/internal/domain/valueobject"
	"snippetcorpus/internal/port/inbound"
	"snippetcorpus/internal/port/outbound"

	"github.com/google/uuid"
)

const defaultImportBatchSize = 50

// ImportServiceConfig configures the remote import flow.
type ImportServiceConfig struct {
	BatchSize  int
	Validation domainservice.ValidationConfig
}

// ImportService harvests challenges from hosted repositories. Batches are either
// published for the import worker or imported in-process.
type ImportService struct {
	connector outbound.RemoteRepositoryConnector
	projects  outbound.ProjectRepository
	reader    outbound.ProjectListReader
	importer  inbound.ChallengeService
	publisher outbound.ChallengeBatchPublisher
	extractor *domainservice.SnippetExtractor
	validator *domainservice.SnippetValidator
	metrics   *CorpusMetrics
	batchSize int
}

// NewImportService creates a new import service. With a nil publisher every batch is
// imported directly through importer.
func NewImportService(
	connector outbound.RemoteRepositoryConnector,
	projects outbound.ProjectRepository,
	reader outbound.ProjectListReader,
	importer inbound.ChallengeService,
	publisher outbound.ChallengeBatchPublisher,
	cfg ImportServiceConfig,
	metrics *CorpusMetrics,
) (*ImportService, error) {
	if connector == nil {
		return nil, errors.New("remote repository connector cannot be nil")
	}
	if projects == nil {
		return nil, errors.New("project repository cannot be nil")
	}
	if publisher == nil && importer == nil {
		return nil, errors.New("either a publisher or a challenge importer is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultImportBatchSize
	}
	return &ImportService{
		connector: connector,
		projects:  projects,
		reader:    reader,
		importer:  importer,
		publisher: publisher,
		extractor: domainservice.NewSnippetExtractor(),
		validator: domainservice.NewSnippetValidator(cfg.Validation),
		metrics:   metrics,
		batchSize: cfg.BatchSize,
	}, nil
}

// ImportProjects imports each "owner/repo" in names, or the projects of the project list
// when names is empty. A failing project is logged and skipped.
func (s *ImportService) ImportProjects(ctx context.Context, names []string) (*dto.ImportSummary, error) {
	if len(names) == 0 {
		if s.reader == nil {
			return nil, errors.New("no projects given and no project list configured")
		}
		listed, err := s.reader.ReadProjects(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read project list: %w", err)
		}
		names = listed
	}

	summary := &dto.ImportSummary{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Projects++
		if err := s.importProject(ctx, name, summary); err != nil {
			summary.FailedProjects = append(summary.FailedProjects, name)
			slogger.Error(ctx, "Project import failed", slogger.Fields2("project", name, "error", err.Error()))
		}
	}

	slogger.Info(ctx, "Import finished", slogger.Fields{
		"projects":  summary.Projects,
		"failed":    len(summary.FailedProjects),
		"extracted": summary.Extracted,
		"published": summary.Published,
		"persisted": summary.Report.Persisted,
	})
	return summary, nil
}

func (s *ImportService) importProject(ctx context.Context, name string, summary *dto.ImportSummary) error {
	start := time.Now()
	projectName, err := valueobject.NewProjectName(name)
	if err != nil {
		return err
	}
	fullName := projectName.String()

	repo, err := s.connector.FetchRepository(ctx, fullName)
	if err != nil {
		return fmt.Errorf("failed to fetch repository: %w", err)
	}
	if _, err := s.projects.Save(ctx, entity.NewProject(repo.FullName, entity.ProjectMetadata{
		HTMLURL:       repo.HTMLURL,
		Language:      repo.Language,
		Stars:         repo.Stars,
		LicenseName:   repo.LicenseName,
		OwnerAvatar:   repo.OwnerAvatar,
		DefaultBranch: repo.DefaultBranch,
	})); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	tree, err := s.connector.FetchTree(ctx, repo.FullName, repo.DefaultBranch)
	if err != nil {
		return fmt.Errorf("failed to fetch tree: %w", err)
	}

	challenges := s.harvestTree(ctx, repo.FullName, tree)
	summary.Extracted += len(challenges)

	for begin := 0; begin < len(challenges); begin += s.batchSize {
		end := min(begin+s.batchSize, len(challenges))
		if err := s.deliver(ctx, repo.FullName, challenges[begin:end], summary); err != nil {
			return err
		}
	}

	slogger.LogPerformance(ctx, "import_project", time.Since(start), slogger.Fields{
		"project":    repo.FullName,
		"files":      len(tree.Entries),
		"challenges": len(challenges),
	})
	return nil
}

// harvestTree extracts the accepted, distinct blocks of every code file in tree.
func (s *ImportService) harvestTree(ctx context.Context, fullName string, tree *outbound.RemoteTree) []dto.ChallengeImport {
	seen := make(map[string]struct{})
	var challenges []dto.ChallengeImport
	files := 0

	for _, entry := range tree.Entries {
		if !entry.IsBlob() || valueobject.LanguageFromPath(entry.Path) == valueobject.LanguageUnknown {
			continue
		}
		data, err := s.connector.FetchBlob(ctx, fullName, entry.Sha)
		if err != nil {
			slogger.Warn(ctx, "Skipping unreadable blob", slogger.Fields3("project", fullName, "path", entry.Path, "error", err.Error()))
			continue
		}
		if !utf8.Valid(data) {
			slogger.Warn(ctx, "Skipping blob that is not valid UTF-8", slogger.Fields2("project", fullName, "path", entry.Path))
			continue
		}
		files++

		onReject := func(_ valueobject.CandidateBlock, reason domainservice.RejectionReason) {
			s.metrics.RecordBlockRejected(ctx, string(reason))
		}
		for block := range s.validator.Filter(s.extractor.Extract(entry.Path, string(data)), onReject) {
			if _, ok := seen[block.Content]; ok {
				continue
			}
			seen[block.Content] = struct{}{}
			challenges = append(challenges, dto.ChallengeImport{
				Content:         block.Content,
				Language:        block.Language(),
				Path:            entry.Path,
				Sha:             entry.Sha,
				TreeSha:         tree.Sha,
				URL:             Permalink(fullName, tree.Sha, entry.Path, block.StartLine, block.EndLine),
				ProjectFullName: fullName,
			})
		}
	}

	s.metrics.RecordFilesScanned(ctx, "", files)
	s.metrics.RecordBlocksAccepted(ctx, "", len(challenges))
	return challenges
}

func (s *ImportService) deliver(
	ctx context.Context,
	fullName string,
	challenges []dto.ChallengeImport,
	summary *dto.ImportSummary,
) error {
	if s.publisher != nil {
		batch := dto.ChallengeImportBatch{BatchID: uuid.NewString(), Project: fullName, Challenges: challenges}
		if err := s.publisher.PublishChallengeBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to publish batch: %w", err)
		}
		summary.Published += len(challenges)
		return nil
	}

	report, err := s.importer.ImportChallenges(ctx, challenges)
	if err != nil {
		return fmt.Errorf("failed to import batch: %w", err)
	}
	summary.Report.Add(*report)
	return nil
}

// Permalink links to the lines of a block in a hosted blob.
func Permalink(fullName, treeSha, path string, startLine, endLine int) string {
	return fmt.Sprintf("https://github.com/%s/blob/%s/%s#L%d-L%d", fullName, treeSha, path, startLine, endLine)
}
