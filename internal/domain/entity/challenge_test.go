package entity

import (
	"testing"
	"time"

	domainerrors "snippetcorpus/internal/domain/errors/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChallenge(t *testing.T) {
	project := NewProject("nzlz/speedtyper", ProjectMetadata{LicenseName: "MIT", DefaultBranch: "main"})
	source := ChallengeSource{Path: "/app/repos/a/lib.rs", Sha: "s1", TreeSha: "t1", URL: "file:///app/repos/a/lib.rs?t=1&r=abc"}

	challenge, err := NewChallenge("fn main() {}", "rust", source, project)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, challenge.ID())
	assert.Equal(t, "fn main() {}", challenge.Content())
	assert.Equal(t, "rust", challenge.Language())
	assert.Equal(t, source.Path, challenge.Path())
	assert.Equal(t, source.Sha, challenge.Sha())
	assert.Equal(t, source.TreeSha, challenge.TreeSha())
	assert.Equal(t, source.URL, challenge.URL())
	assert.Equal(t, project.ID(), challenge.ProjectID())
	assert.False(t, challenge.IsPersisted())

	challenge.MarkPersisted()
	assert.True(t, challenge.IsPersisted())
}

func TestNewChallenge_Invalid(t *testing.T) {
	_, err := NewChallenge("   ", "go", ChallengeSource{URL: "u"}, nil)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidChallenge)

	_, err = NewChallenge("func x() {}", "go", ChallengeSource{}, nil)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidChallenge)
}

func TestRestoreChallenge(t *testing.T) {
	id := uuid.New()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	challenge := RestoreChallenge(id, "def f(): pass", "python", ChallengeSource{URL: "u"}, nil, created)

	assert.Equal(t, id, challenge.ID())
	assert.Equal(t, created, challenge.CreatedAt())
	assert.Equal(t, uuid.Nil, challenge.ProjectID())
	assert.True(t, challenge.IsPersisted())
}

func TestProject_Metadata(t *testing.T) {
	meta := ProjectMetadata{
		HTMLURL:       "https://github.com/nzlz/speedtyper",
		Language:      "unknown",
		LicenseName:   "MIT",
		OwnerAvatar:   "https://github.com/identicons/nzlz.png",
		DefaultBranch: "main",
	}
	project := NewProject("nzlz/speedtyper", meta)
	assert.Equal(t, "nzlz/speedtyper", project.FullName())
	assert.Equal(t, meta, project.Metadata())

	restored := RestoreProject(project.ID(), project.FullName(), project.Metadata(), project.CreatedAt())
	assert.Equal(t, project.ID(), restored.ID())
	assert.Equal(t, meta, restored.Metadata())
}
