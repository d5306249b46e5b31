package entity

import (
	"time"

	"github.com/google/uuid"
)

// Project is the repository or collection that owns challenges.
type Project struct {
	id            uuid.UUID
	fullName      string
	htmlURL       string
	language      string
	stars         int
	licenseName   string
	ownerAvatar   string
	defaultBranch string
	createdAt     time.Time
}

// ProjectMetadata carries the descriptive attributes of a project.
type ProjectMetadata struct {
	HTMLURL       string
	Language      string
	Stars         int
	LicenseName   string
	OwnerAvatar   string
	DefaultBranch string
}

// NewProject creates a new Project entity.
func NewProject(fullName string, meta ProjectMetadata) *Project {
	return &Project{
		id:            uuid.New(),
		fullName:      fullName,
		htmlURL:       meta.HTMLURL,
		language:      meta.Language,
		stars:         meta.Stars,
		licenseName:   meta.LicenseName,
		ownerAvatar:   meta.OwnerAvatar,
		defaultBranch: meta.DefaultBranch,
		createdAt:     time.Now(),
	}
}

// RestoreProject creates a Project entity from stored data.
func RestoreProject(id uuid.UUID, fullName string, meta ProjectMetadata, createdAt time.Time) *Project {
	return &Project{
		id:            id,
		fullName:      fullName,
		htmlURL:       meta.HTMLURL,
		language:      meta.Language,
		stars:         meta.Stars,
		licenseName:   meta.LicenseName,
		ownerAvatar:   meta.OwnerAvatar,
		defaultBranch: meta.DefaultBranch,
		createdAt:     createdAt,
	}
}

func (p *Project) ID() uuid.UUID         { return p.id }
func (p *Project) FullName() string      { return p.fullName }
func (p *Project) HTMLURL() string       { return p.htmlURL }
func (p *Project) Language() string      { return p.language }
func (p *Project) Stars() int            { return p.stars }
func (p *Project) LicenseName() string   { return p.licenseName }
func (p *Project) OwnerAvatar() string   { return p.ownerAvatar }
func (p *Project) DefaultBranch() string { return p.defaultBranch }
func (p *Project) CreatedAt() time.Time  { return p.createdAt }

// Metadata returns the descriptive attributes of the project.
func (p *Project) Metadata() ProjectMetadata {
	return ProjectMetadata{
		HTMLURL:       p.htmlURL,
		Language:      p.language,
		Stars:         p.stars,
		LicenseName:   p.licenseName,
		OwnerAvatar:   p.ownerAvatar,
		DefaultBranch: p.defaultBranch,
	}
}
