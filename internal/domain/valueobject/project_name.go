package valueobject

import (
	"fmt"
	"regexp"
	"strings"

	domainerrors "snippetcorpus/internal/domain/errors/domain"
)

//nolint:gochecknoglobals // compiled once
var githubURLPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/.]+)`)

// ProjectName is an "owner/repo" identity of a hosted repository.
type ProjectName struct {
	owner string
	repo  string
}

// NewProjectName parses and validates an "owner/repo" slug. Surrounding whitespace of
// each part is trimmed; both parts must remain non-empty.
func NewProjectName(slug string) (ProjectName, error) {
	owner, repo, found := strings.Cut(slug, "/")
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	if !found || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return ProjectName{}, fmt.Errorf("%w: %q", domainerrors.ErrInvalidProjectName, slug)
	}
	return ProjectName{owner: owner, repo: repo}, nil
}

// ProjectNameFromGitHubURL extracts the project identity from a github.com URL.
func ProjectNameFromGitHubURL(rawURL string) (ProjectName, error) {
	match := githubURLPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return ProjectName{}, fmt.Errorf("%w: not a github URL: %q", domainerrors.ErrInvalidProjectName, rawURL)
	}
	return NewProjectName(match[1] + "/" + match[2])
}

// IsGitHubURL reports whether rawURL points at a github.com repository.
func IsGitHubURL(rawURL string) bool {
	return githubURLPattern.MatchString(rawURL)
}

// Owner returns the owning account.
func (p ProjectName) Owner() string { return p.owner }

// Repo returns the repository name.
func (p ProjectName) Repo() string { return p.repo }

// String returns "owner/repo".
func (p ProjectName) String() string {
	return p.owner + "/" + p.repo
}
