package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/domain/entity"
	"snippetcorpus/internal/port/outbound"

	"github.com/stretchr/testify/mock"
)

type mockChallengeRepository struct {
	mock.Mock
}

func (m *mockChallengeRepository) UpsertBatch(ctx context.Context, challenges []*entity.Challenge) error {
	return m.Called(ctx, challenges).Error(0)
}

func (m *mockChallengeRepository) Save(ctx context.Context, challenge *entity.Challenge) error {
	return m.Called(ctx, challenge).Error(0)
}

func (m *mockChallengeRepository) FindRandom(ctx context.Context, language string) (*entity.Challenge, error) {
	args := m.Called(ctx, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Challenge), args.Error(1)
}

func (m *mockChallengeRepository) FindDistinctLanguages(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockProjectRepository struct {
	mock.Mock
}

func (m *mockProjectRepository) FindByFullName(ctx context.Context, fullName string) (*entity.Project, error) {
	args := m.Called(ctx, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Project), args.Error(1)
}

func (m *mockProjectRepository) Save(ctx context.Context, project *entity.Project) (*entity.Project, error) {
	args := m.Called(ctx, project)
	if fn, ok := args.Get(0).(func(context.Context, *entity.Project) *entity.Project); ok {
		return fn(ctx, project), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Project), args.Error(1)
}

// returnSavedProject makes Save echo its argument.
func returnSavedProject(projects *mockProjectRepository) {
	projects.On("Save", mock.Anything, mock.Anything).
		Return(func(_ context.Context, p *entity.Project) *entity.Project { return p }, nil)
}

// memoryWalker serves an in-memory repository pool.
type memoryWalker struct {
	files   map[string]string
	failing map[string]bool
	walkErr error
}

func (w *memoryWalker) Walk(_ context.Context, _ string, _ string) ([]string, error) {
	if w.walkErr != nil {
		return nil, w.walkErr
	}
	paths := make([]string, 0, len(w.files))
	for path := range w.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func (w *memoryWalker) ReadFile(_ context.Context, path string) ([]byte, error) {
	if w.failing[path] {
		return nil, errors.New("permission denied")
	}
	content, ok := w.files[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return []byte(content), nil
}

var _ outbound.RepositoryWalker = (*memoryWalker)(nil)

type fakeConnector struct {
	repos    map[string]*outbound.RemoteRepository
	trees    map[string]*outbound.RemoteTree
	blobs    map[string]string
	repoErrs map[string]error
}

func (f *fakeConnector) FetchRepository(_ context.Context, fullName string) (*outbound.RemoteRepository, error) {
	if err := f.repoErrs[fullName]; err != nil {
		return nil, err
	}
	repo, ok := f.repos[fullName]
	if !ok {
		return nil, errors.New("not found")
	}
	return repo, nil
}

func (f *fakeConnector) FetchTree(_ context.Context, fullName, _ string) (*outbound.RemoteTree, error) {
	tree, ok := f.trees[fullName]
	if !ok {
		return nil, errors.New("not found")
	}
	return tree, nil
}

func (f *fakeConnector) FetchBlob(_ context.Context, _ string, sha string) ([]byte, error) {
	blob, ok := f.blobs[sha]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return []byte(blob), nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	batches []dto.ChallengeImportBatch
	err     error
}

func (p *recordingPublisher) PublishChallengeBatch(_ context.Context, batch dto.ChallengeImportBatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, batch)
	return nil
}

type staticProjectList []string

func (s staticProjectList) ReadProjects(context.Context) ([]string, error) { return s, nil }
