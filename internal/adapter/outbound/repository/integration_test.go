package repository

import (
	"context"
	"fmt"
	"os"
	"testing"

	"snippetcorpus/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDatabaseURLEnv = "SNIPPETCORPUS_TEST_DATABASE_URL"

// setupTestDB connects to the database named by SNIPPETCORPUS_TEST_DATABASE_URL, migrates it and
// empties the tables. Tests are skipped when the variable is unset.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv(testDatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set; skipping PostgreSQL integration test", testDatabaseURLEnv)
	}

	ctx := context.Background()
	pool, err := NewDatabaseConnectionFromString(ctx, url, DatabaseConfig{MaxConnections: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	_, err = pool.Exec(ctx, "TRUNCATE challenges, projects")
	require.NoError(t, err)
	return pool
}

func countChallenges(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM challenges").Scan(&n))
	return n
}

func newTestChallenge(t *testing.T, content, language, path string, project *entity.Project) *entity.Challenge {
	t.Helper()
	challenge, err := entity.NewChallenge(content, language, entity.ChallengeSource{
		Path:    path,
		Sha:     uuid.NewString(),
		TreeSha: uuid.NewString(),
		URL:     "file://" + path + "?r=" + uuid.NewString(),
	}, project)
	require.NoError(t, err)
	return challenge
}

func TestChallengeRepository_UpsertBatchIsIdempotentOnContent(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewPostgreSQLChallengeRepository(pool)

	first := make([]*entity.Challenge, 0, 10)
	for i := range 10 {
		first = append(first, newTestChallenge(t, fmt.Sprintf("fn f%d() {}", i), "rust", fmt.Sprintf("src/f%d.rs", i), nil))
	}
	require.NoError(t, repo.UpsertBatch(ctx, first))

	// Same content, fresh identities: rows are updated in place, not duplicated.
	second := make([]*entity.Challenge, 0, 10)
	for i := range 10 {
		second = append(second, newTestChallenge(t, fmt.Sprintf("fn f%d() {}", i), "rust", fmt.Sprintf("lib/f%d.rs", i), nil))
	}
	require.NoError(t, repo.UpsertBatch(ctx, second))

	count := countChallenges(t, pool)
	assert.Equal(t, 10, count)

	var path string
	require.NoError(t, pool.QueryRow(ctx, "SELECT path FROM challenges WHERE content = $1", "fn f3() {}").Scan(&path))
	assert.Equal(t, "lib/f3.rs", path)
}

func TestChallengeRepository_BatchFailureLeavesRecordsSaveable(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewPostgreSQLChallengeRepository(pool)

	existing := newTestChallenge(t, "def taken(): pass", "python", "a.py", nil)
	require.NoError(t, repo.Save(ctx, existing))

	batch := make([]*entity.Challenge, 0, 10)
	for i := range 10 {
		batch = append(batch, newTestChallenge(t, fmt.Sprintf("def f%d(): pass", i), "python", "b.py", nil))
	}
	// Record #5 reuses a stored url, violating its unique constraint.
	batch[4] = entity.RestoreChallenge(uuid.New(), "def clash(): pass", "python",
		entity.ChallengeSource{Path: "c.py", Sha: "s", TreeSha: "t", URL: existing.URL()}, nil, existing.CreatedAt())

	err := repo.UpsertBatch(ctx, batch)
	require.Error(t, err)
	assert.True(t, IsConstraintViolationError(err))

	saved := 0
	for _, challenge := range batch {
		if repo.Save(ctx, challenge) == nil {
			saved++
		}
	}
	assert.Equal(t, 9, saved)

	count := countChallenges(t, pool)
	assert.Equal(t, 10, count)
}

func TestChallengeRepository_DuplicateContentInBatchFails(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPostgreSQLChallengeRepository(pool)

	a := newTestChallenge(t, "struct Same {}", "rust", "a.rs", nil)
	b := newTestChallenge(t, "struct Same {}", "rust", "b.rs", nil)

	err := repo.UpsertBatch(context.Background(), []*entity.Challenge{a, b})
	assert.ErrorIs(t, err, ErrConstraintViolation)
}

func TestChallengeRepository_FindRandomAndLanguages(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewPostgreSQLChallengeRepository(pool)
	projects := NewPostgreSQLProjectRepository(pool)

	none, err := repo.FindRandom(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, none)

	project, err := projects.Save(ctx, entity.NewProject("nzlz/speedtyper", entity.ProjectMetadata{
		HTMLURL: "https://github.com/nzlz/speedtyper", Language: "rust", LicenseName: "MIT", DefaultBranch: "main",
	}))
	require.NoError(t, err)

	require.NoError(t, repo.UpsertBatch(ctx, []*entity.Challenge{
		newTestChallenge(t, "fn a() {}", "rust", "a.rs", project),
		newTestChallenge(t, "def b(): pass", "python", "b.py", nil),
		newTestChallenge(t, "def c(): pass", "python", "c.py", nil),
	}))

	found, err := repo.FindRandom(ctx, "rust")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "fn a() {}", found.Content())
	assert.True(t, found.IsPersisted())
	require.NotNil(t, found.Project())
	assert.Equal(t, "nzlz/speedtyper", found.Project().FullName())
	assert.Equal(t, "MIT", found.Project().LicenseName())

	found, err = repo.FindRandom(ctx, "python")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Nil(t, found.Project())

	missing, err := repo.FindRandom(ctx, "go")
	require.NoError(t, err)
	assert.Nil(t, missing)

	languages, err := repo.FindDistinctLanguages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "rust"}, languages)
}

func TestProjectRepository_SaveReturnsExistingProject(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewPostgreSQLProjectRepository(pool)

	missing, err := repo.FindByFullName(ctx, "nzlz/speedtyper")
	require.NoError(t, err)
	assert.Nil(t, missing)

	first, err := repo.Save(ctx, entity.NewProject("nzlz/speedtyper", entity.ProjectMetadata{Language: "rust"}))
	require.NoError(t, err)

	second, err := repo.Save(ctx, entity.NewProject("nzlz/speedtyper", entity.ProjectMetadata{Language: "go"}))
	require.NoError(t, err)
	assert.Equal(t, first.ID(), second.ID())
	assert.Equal(t, "rust", second.Language())

	found, err := repo.FindByFullName(ctx, "nzlz/speedtyper")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID(), found.ID())

	_, err = repo.FindByFullName(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
