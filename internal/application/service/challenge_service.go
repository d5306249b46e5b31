package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"snippetcorpus/internal/application/common/slogger"
	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/config"
	"snippetcorpus/internal/domain/entity"
	domainerrors "snippetcorpus/internal/domain/errors/domain"
	domainservice "snippetcorpus/internal/domain/service"
	"snippetcorpus/internal/domain/valueobject"
	"snippetcorpus/internal/port/outbound"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	textlanguage "golang.org/x/text/language"
)

const (
	defaultUpsertBatchSize = 10
	urlSuffixLength        = 6
	base36Alphabet         = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// UpsertResult is the outcome of one upsert run.
type UpsertResult struct {
	Report dto.UpsertReport
	// DroppedContents lists the content of every challenge that failed to persist.
	DroppedContents []string
}

// ChallengeCorpusService serves challenges from the store and populates the store from
// the local repository pool when it has nothing to serve.
type ChallengeCorpusService struct {
	challenges outbound.ChallengeRepository
	projects   outbound.ProjectRepository
	walker     outbound.RepositoryWalker
	extractor  *domainservice.SnippetExtractor
	validator  *domainservice.SnippetValidator
	metrics    *CorpusMetrics
	cfg        config.CorpusConfig

	now       func() time.Time
	randomInt func(n int) int
}

// NewChallengeCorpusService creates a new corpus service. metrics may be nil.
func NewChallengeCorpusService(
	challenges outbound.ChallengeRepository,
	projects outbound.ProjectRepository,
	walker outbound.RepositoryWalker,
	cfg config.CorpusConfig,
	metrics *CorpusMetrics,
) *ChallengeCorpusService {
	if challenges == nil {
		panic("challenge repository cannot be nil")
	}
	if projects == nil {
		panic("project repository cannot be nil")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultUpsertBatchSize
	}
	if cfg.ExtractWorkers <= 0 {
		cfg.ExtractWorkers = 1
	}
	return &ChallengeCorpusService{
		challenges: challenges,
		projects:   projects,
		walker:     walker,
		extractor:  domainservice.NewSnippetExtractor(),
		validator:  domainservice.NewSnippetValidator(cfg.Validation),
		metrics:    metrics,
		cfg:        cfg,
		now:        time.Now,
		randomInt:  rand.IntN,
	}
}

// Upsert persists challenges in sequential sub-batches. A sub-batch that fails as a whole
// is retried record by record; records that still fail are logged and dropped. Only
// cancellation of ctx is returned as an error.
func (s *ChallengeCorpusService) Upsert(ctx context.Context, challenges []*entity.Challenge) (*UpsertResult, error) {
	result := &UpsertResult{Report: dto.UpsertReport{Attempted: len(challenges)}}

	for start := 0; start < len(challenges); start += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := min(start+s.cfg.BatchSize, len(challenges))
		s.upsertSubBatch(ctx, challenges[start:end], result)
	}
	return result, nil
}

func (s *ChallengeCorpusService) upsertSubBatch(ctx context.Context, batch []*entity.Challenge, result *UpsertResult) {
	err := s.challenges.UpsertBatch(ctx, batch)
	if err == nil {
		for _, c := range batch {
			c.MarkPersisted()
		}
		result.Report.Persisted += len(batch)
		return
	}

	result.Report.Fallbacks++
	slogger.Warn(ctx, "Batch upsert failed, saving records individually", slogger.Fields2(
		"batch_size", len(batch),
		"error", err.Error(),
	))

	for _, c := range batch {
		if err := s.challenges.Save(ctx, c); err != nil {
			result.Report.Dropped++
			result.DroppedContents = append(result.DroppedContents, c.Content())
			slogger.Error(ctx, "Dropping challenge that failed to persist", slogger.Fields3(
				"path", c.Path(),
				"url", c.URL(),
				"error", err.Error(),
			))
			continue
		}
		c.MarkPersisted()
		result.Report.Persisted++
	}
}

// GetRandomChallenge returns one challenge for language, or for any language when it is
// empty. When the store has none, the local repository pool is harvested and the answer is
// drawn from the harvested set.
func (s *ChallengeCorpusService) GetRandomChallenge(ctx context.Context, language string) (*dto.ChallengeResponse, error) {
	stored, err := s.findStored(ctx, language)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		return toChallengeResponse(stored), nil
	}

	synthesized, err := s.populate(ctx, language)
	if err != nil {
		return nil, err
	}
	if len(synthesized) == 0 {
		return nil, domainerrors.NewNoChallengesError(language)
	}

	chosen := s.pickSynthesized(synthesized)
	if !chosen.IsPersisted() {
		slogger.Warn(ctx, "Serving challenge that is not persisted", slogger.Fields2(
			"language", language,
			"url", chosen.URL(),
		))
	}
	return toChallengeResponse(chosen), nil
}

// pickSynthesized chooses uniformly among the persisted members of a freshly built set,
// or among all of them when none could be stored.
func (s *ChallengeCorpusService) pickSynthesized(synthesized []*entity.Challenge) *entity.Challenge {
	persisted := make([]*entity.Challenge, 0, len(synthesized))
	for _, c := range synthesized {
		if c.IsPersisted() {
			persisted = append(persisted, c)
		}
	}
	if len(persisted) == 0 {
		persisted = synthesized
	}
	return persisted[s.randomInt(len(persisted))]
}

func (s *ChallengeCorpusService) findStored(ctx context.Context, language string) (*entity.Challenge, error) {
	challenge, err := s.challenges.FindRandom(ctx, language)
	if err != nil {
		return nil, fmt.Errorf("failed to query stored challenges: %w", err)
	}
	return challenge, nil
}

// populate harvests the local repository pool for language, persists the accepted and
// deduplicated blocks, and returns them with their persistence state.
func (s *ChallengeCorpusService) populate(ctx context.Context, language string) ([]*entity.Challenge, error) {
	if s.walker == nil {
		return nil, nil
	}
	start := s.now()

	files, err := s.walker.Walk(ctx, s.cfg.ReposDir, language)
	if err != nil {
		return nil, fmt.Errorf("failed to walk repository pool: %w", err)
	}

	blocks, err := s.extractFiles(ctx, files, language)
	if err != nil {
		return nil, err
	}
	blocks = dedupeBlocks(blocks)
	if len(blocks) == 0 {
		s.metrics.RecordPopulation(ctx, language, s.now().Sub(start), 0)
		slogger.Info(ctx, "Repository pool produced no challenges", slogger.Fields2(
			"language", language,
			"files", len(files),
		))
		return nil, nil
	}

	project, err := s.ensureDefaultProject(ctx, language)
	if err != nil {
		slogger.Warn(ctx, "Default project unavailable, challenges stay unowned", slogger.Field("error", err.Error()))
	}

	challenges := make([]*entity.Challenge, 0, len(blocks))
	for _, block := range blocks {
		challenge, err := entity.NewChallenge(block.Content, block.Language(), s.syntheticSource(block.Path), project)
		if err != nil {
			slogger.Warn(ctx, "Skipping invalid block", slogger.Fields2("path", block.Path, "error", err.Error()))
			continue
		}
		challenges = append(challenges, challenge)
	}

	result, err := s.Upsert(ctx, challenges)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordUpsert(ctx, "populate", result.Report.Persisted, result.Report.Dropped, result.Report.Fallbacks)

	elapsed := s.now().Sub(start)
	s.metrics.RecordPopulation(ctx, language, elapsed, len(challenges))
	slogger.LogPerformance(ctx, "populate_corpus", elapsed, slogger.Fields{
		"language":  language,
		"files":     len(files),
		"persisted": result.Report.Persisted,
		"dropped":   result.Report.Dropped,
	})
	return challenges, nil
}

// extractFiles reads and extracts files in parallel. Results keep walk order.
func (s *ChallengeCorpusService) extractFiles(
	ctx context.Context,
	files []string,
	language string,
) ([]valueobject.CandidateBlock, error) {
	perFile := make([][]valueobject.CandidateBlock, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ExtractWorkers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perFile[i] = s.extractFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.metrics.RecordFilesScanned(ctx, language, len(files))

	var blocks []valueobject.CandidateBlock
	for _, fileBlocks := range perFile {
		blocks = append(blocks, fileBlocks...)
	}
	s.metrics.RecordBlocksAccepted(ctx, language, len(blocks))
	return blocks, nil
}

func (s *ChallengeCorpusService) extractFile(ctx context.Context, path string) []valueobject.CandidateBlock {
	data, err := s.walker.ReadFile(ctx, path)
	if err != nil {
		slogger.Warn(ctx, "Skipping unreadable file", slogger.Fields2("path", path, "error", err.Error()))
		return nil
	}
	if !utf8.Valid(data) {
		slogger.Warn(ctx, "Skipping file that is not valid UTF-8", slogger.Field("path", path))
		return nil
	}

	var accepted []valueobject.CandidateBlock
	onReject := func(_ valueobject.CandidateBlock, reason domainservice.RejectionReason) {
		s.metrics.RecordBlockRejected(ctx, string(reason))
	}
	for block := range s.validator.Filter(s.extractor.Extract(path, string(data)), onReject) {
		accepted = append(accepted, block)
	}
	return accepted
}

// dedupeBlocks keeps the first block of every distinct content.
func dedupeBlocks(blocks []valueobject.CandidateBlock) []valueobject.CandidateBlock {
	seen := make(map[string]struct{}, len(blocks))
	unique := make([]valueobject.CandidateBlock, 0, len(blocks))
	for _, block := range blocks {
		if _, ok := seen[block.Content]; ok {
			continue
		}
		seen[block.Content] = struct{}{}
		unique = append(unique, block)
	}
	return unique
}

// ensureDefaultProject finds or lazily creates the project owning synthesized challenges.
func (s *ChallengeCorpusService) ensureDefaultProject(ctx context.Context, language string) (*entity.Project, error) {
	def := s.cfg.DefaultProject
	project, err := s.projects.FindByFullName(ctx, def.FullName)
	if err != nil {
		return nil, fmt.Errorf("failed to find default project: %w", err)
	}
	if project != nil {
		return project, nil
	}

	if language == "" {
		language = valueobject.LanguageUnknown
	}
	project, err = s.projects.Save(ctx, entity.NewProject(def.FullName, entity.ProjectMetadata{
		HTMLURL:       def.HTMLURL,
		Language:      language,
		Stars:         def.Stars,
		LicenseName:   def.LicenseName,
		OwnerAvatar:   def.OwnerAvatar,
		DefaultBranch: def.DefaultBranch,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create default project: %w", err)
	}
	slogger.Info(ctx, "Default project created", slogger.Field("full_name", project.FullName()))
	return project, nil
}

// syntheticSource builds the provenance of a block harvested from the local pool. It has
// no commit, so sha and treeSha are random and the url is made unique per harvest.
func (s *ChallengeCorpusService) syntheticSource(path string) entity.ChallengeSource {
	return entity.ChallengeSource{
		Path:    path,
		Sha:     uuid.NewString(),
		TreeSha: uuid.NewString(),
		URL:     fmt.Sprintf("file://%s?t=%d&r=%s", path, s.now().UnixMilli(), s.randomSuffix()),
	}
}

func (s *ChallengeCorpusService) randomSuffix() string {
	var b strings.Builder
	b.Grow(urlSuffixLength)
	for range urlSuffixLength {
		b.WriteByte(base36Alphabet[s.randomInt(len(base36Alphabet))])
	}
	return b.String()
}

// ListLanguages returns the distinct stored languages sorted by display name.
func (s *ChallengeCorpusService) ListLanguages(ctx context.Context) ([]valueobject.LanguageInfo, error) {
	languages, err := s.challenges.FindDistinctLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}

	seen := make(map[string]struct{}, len(languages))
	infos := make([]valueobject.LanguageInfo, 0, len(languages))
	for _, lang := range languages {
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		infos = append(infos, valueobject.NewLanguageInfo(lang))
	}

	sortLanguageInfos(infos)
	return infos, nil
}

// sortLanguageInfos orders by display name with English collation, then by identifier.
func sortLanguageInfos(infos []valueobject.LanguageInfo) {
	collator := collate.New(textlanguage.English, collate.IgnoreCase)
	slices.SortStableFunc(infos, func(a, b valueobject.LanguageInfo) int {
		if c := collator.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Language, b.Language)
	})
}

// ImportChallenges imports externally produced challenges. Records without a language are
// classified by path; records naming an unknown project get a minimal project created.
func (s *ChallengeCorpusService) ImportChallenges(ctx context.Context, batch []dto.ChallengeImport) (*dto.UpsertReport, error) {
	projects := make(map[string]*entity.Project)
	challenges := make([]*entity.Challenge, 0, len(batch))
	invalid := 0

	for _, item := range batch {
		project, err := s.resolveProject(ctx, item.ProjectFullName, projects)
		if err != nil {
			return nil, err
		}

		lang := item.Language
		if lang == "" {
			lang = valueobject.LanguageFromPath(item.Path)
		}
		challenge, err := entity.NewChallenge(item.Content, lang, entity.ChallengeSource{
			Path:    item.Path,
			Sha:     item.Sha,
			TreeSha: item.TreeSha,
			URL:     item.URL,
		}, project)
		if err != nil {
			invalid++
			slogger.Warn(ctx, "Skipping invalid imported challenge", slogger.Fields2("url", item.URL, "error", err.Error()))
			continue
		}
		challenges = append(challenges, challenge)
	}

	result, err := s.Upsert(ctx, challenges)
	if err != nil {
		return nil, err
	}
	report := result.Report
	report.Attempted += invalid
	report.Dropped += invalid
	s.metrics.RecordUpsert(ctx, "import", report.Persisted, report.Dropped, report.Fallbacks)
	return &report, nil
}

func (s *ChallengeCorpusService) resolveProject(
	ctx context.Context,
	fullName string,
	resolved map[string]*entity.Project,
) (*entity.Project, error) {
	if fullName == "" {
		return nil, nil
	}
	if project, ok := resolved[fullName]; ok {
		return project, nil
	}

	name, err := valueobject.NewProjectName(fullName)
	if err != nil {
		return nil, err
	}
	project, err := s.projects.FindByFullName(ctx, name.String())
	if err != nil {
		return nil, fmt.Errorf("failed to find project %s: %w", name, err)
	}
	if project == nil {
		project, err = s.projects.Save(ctx, entity.NewProject(name.String(), entity.ProjectMetadata{
			HTMLURL:  "https://github.com/" + name.String(),
			Language: valueobject.LanguageUnknown,
		}))
		if err != nil {
			return nil, fmt.Errorf("failed to create project %s: %w", name, err)
		}
	}
	resolved[fullName] = project
	return project, nil
}

func toChallengeResponse(c *entity.Challenge) *dto.ChallengeResponse {
	resp := &dto.ChallengeResponse{
		ID:        c.ID().String(),
		Content:   c.Content(),
		Language:  c.Language(),
		Path:      c.Path(),
		Sha:       c.Sha(),
		TreeSha:   c.TreeSha(),
		URL:       c.URL(),
		Persisted: c.IsPersisted(),
	}
	if p := c.Project(); p != nil {
		resp.Project = &dto.ProjectResponse{
			FullName:      p.FullName(),
			HTMLURL:       p.HTMLURL(),
			Language:      p.Language(),
			Stars:         p.Stars(),
			LicenseName:   p.LicenseName(),
			OwnerAvatar:   p.OwnerAvatar(),
			DefaultBranch: p.DefaultBranch(),
		}
	}
	return resp
}
