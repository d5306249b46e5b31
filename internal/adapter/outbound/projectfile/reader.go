// Package projectfile reads the list of repositories to import from a YAML project file.
package projectfile

import (
	"context"
	"fmt"
	"os"
	"slices"

	"snippetcorpus/internal/application/common/slogger"
	"snippetcorpus/internal/domain/valueobject"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the project file lives in the container image.
const DefaultPath = "/app/.repos"

// File is the YAML document:
//
//	repositories:
//	  speedtyper:
//	    url: https://github.com/nzlz/speedtyper
type File struct {
	Repositories map[string]Repository `yaml:"repositories"`
}

// Repository is one entry of the project file.
type Repository struct {
	URL string `yaml:"url"`
}

// Reader implements outbound.ProjectListReader.
type Reader struct {
	path string
}

// NewReader creates a reader for the file at path, or DefaultPath when path is empty.
func NewReader(path string) *Reader {
	if path == "" {
		path = DefaultPath
	}
	return &Reader{path: path}
}

// ReadProjects returns the "owner/repo" names of every GitHub repository in the file, sorted by
// entry name. Entries that are not GitHub URLs are skipped; a GitHub URL with an empty owner or
// repository fails the read.
func (r *Reader) ReadProjects(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	return Parse(ctx, data)
}

// Parse extracts project names from a project file document.
func Parse(ctx context.Context, data []byte) ([]string, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse project file: %w", err)
	}

	entries := make([]string, 0, len(file.Repositories))
	for entry := range file.Repositories {
		entries = append(entries, entry)
	}
	slices.Sort(entries)

	projects := make([]string, 0, len(entries))
	for _, entry := range entries {
		repoURL := file.Repositories[entry].URL
		if !valueobject.IsGitHubURL(repoURL) {
			slogger.Debug(ctx, "Skipping non-GitHub project", slogger.Fields2("entry", entry, "url", repoURL))
			continue
		}
		name, err := valueobject.ProjectNameFromGitHubURL(repoURL)
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", entry, err)
		}
		projects = append(projects, name.String())
	}
	return projects, nil
}
