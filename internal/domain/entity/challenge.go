package entity

import (
	"fmt"
	"strings"
	"time"

	domainerrors "snippetcorpus/internal/domain/errors/domain"

	"github.com/google/uuid"
)

// Challenge is a persisted, typeable code fragment. Content is its identity:
// the store never holds two challenges with the same content.
type Challenge struct {
	id        uuid.UUID
	content   string
	language  string
	path      string
	sha       string
	treeSha   string
	url       string
	project   *Project
	createdAt time.Time
	persisted bool
}

// ChallengeSource identifies where a challenge's content came from.
type ChallengeSource struct {
	Path    string
	Sha     string
	TreeSha string
	URL     string
}

// NewChallenge creates a new, not yet persisted, Challenge.
func NewChallenge(content, language string, source ChallengeSource, project *Project) (*Challenge, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is empty", domainerrors.ErrInvalidChallenge)
	}
	if source.URL == "" {
		return nil, fmt.Errorf("%w: url is empty", domainerrors.ErrInvalidChallenge)
	}
	return &Challenge{
		id:        uuid.New(),
		content:   content,
		language:  language,
		path:      source.Path,
		sha:       source.Sha,
		treeSha:   source.TreeSha,
		url:       source.URL,
		project:   project,
		createdAt: time.Now(),
	}, nil
}

// RestoreChallenge creates a Challenge entity from stored data.
func RestoreChallenge(
	id uuid.UUID,
	content string,
	language string,
	source ChallengeSource,
	project *Project,
	createdAt time.Time,
) *Challenge {
	return &Challenge{
		id:        id,
		content:   content,
		language:  language,
		path:      source.Path,
		sha:       source.Sha,
		treeSha:   source.TreeSha,
		url:       source.URL,
		project:   project,
		createdAt: createdAt,
		persisted: true,
	}
}

func (c *Challenge) ID() uuid.UUID        { return c.id }
func (c *Challenge) Content() string      { return c.content }
func (c *Challenge) Language() string     { return c.language }
func (c *Challenge) Path() string         { return c.path }
func (c *Challenge) Sha() string          { return c.sha }
func (c *Challenge) TreeSha() string      { return c.treeSha }
func (c *Challenge) URL() string          { return c.url }
func (c *Challenge) Project() *Project    { return c.project }
func (c *Challenge) CreatedAt() time.Time { return c.createdAt }

// ProjectID returns the owning project's ID, or uuid.Nil when unowned.
func (c *Challenge) ProjectID() uuid.UUID {
	if c.project == nil {
		return uuid.Nil
	}
	return c.project.ID()
}

// IsPersisted reports whether the challenge is known to be in the store.
func (c *Challenge) IsPersisted() bool { return c.persisted }

// MarkPersisted records that the store accepted the challenge.
func (c *Challenge) MarkPersisted() { c.persisted = true }
