// Package version holds the build information of the snippetcorpus binary.
//
// The variables are injected at build time:
//
//	-ldflags "-X snippetcorpus/internal/version.version=v1.0.0 -X snippetcorpus/internal/version.commit=abc123 -X snippetcorpus/internal/version.buildTime=2025-01-01T00:00:00Z"
package version

import (
	"fmt"
	"io"
	"strings"
	"time"
)

//nolint:gochecknoglobals // Required for build-time injection via ldflags.
var (
	version   string
	commit    string
	buildTime string
)

// ApplicationName is the name displayed in version output.
const ApplicationName = "SnippetCorpus"

// Default values used when version information is not available.
const (
	DefaultVersion   = "dev"
	DefaultCommit    = "unknown"
	DefaultBuildTime = "unknown"
)

// Labels of the full output.
const (
	LabelVersion = "Version"
	LabelCommit  = "Commit"
	LabelBuilt   = "Built"
)

// VersionInfo is the resolved build information.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// NewVersionInfo resolves the build variables, substituting defaults for unset ones.
func NewVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   withDefault(version, DefaultVersion),
		Commit:    withDefault(commit, DefaultCommit),
		BuildTime: withDefault(buildTime, DefaultBuildTime),
	}
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// FormatShort returns the version number only.
func (vi *VersionInfo) FormatShort() string {
	return vi.Version
}

// FormatFull returns the application name followed by one "Label: value" line per field.
func (vi *VersionInfo) FormatFull() string {
	var b strings.Builder
	b.WriteString(ApplicationName + "\n")
	for _, line := range [][2]string{
		{LabelVersion, vi.Version},
		{LabelCommit, vi.Commit},
		{LabelBuilt, vi.BuildTime},
	} {
		b.WriteString(line[0] + ": " + line[1] + "\n")
	}
	return b.String()
}

// Write writes the short or the full format to w.
func (vi *VersionInfo) Write(w io.Writer, short bool) error {
	if short {
		_, err := fmt.Fprintln(w, vi.FormatShort())
		return err
	}
	_, err := io.WriteString(w, vi.FormatFull())
	return err
}

// GetVersion returns the current version information.
func GetVersion() *VersionInfo {
	return NewVersionInfo()
}

// SetBuildVars overrides the build variables. Used by tests and by the cmd package.
func SetBuildVars(ver, com, bt string) {
	version = ver
	commit = com
	buildTime = bt
}

// ResetBuildVars clears the build variables.
func ResetBuildVars() {
	SetBuildVars("", "", "")
}

// IsDevelopment reports whether this is an untagged build.
func (vi *VersionInfo) IsDevelopment() bool {
	return vi.Version == DefaultVersion
}

// GetBuildTime parses the build time, returning the zero time when it is unknown or malformed.
func (vi *VersionInfo) GetBuildTime() time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", time.DateOnly} {
		if parsed, err := time.Parse(layout, vi.BuildTime); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
