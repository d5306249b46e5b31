package outbound

import "context"

// RemoteRepository is the metadata of a hosted repository.
type RemoteRepository struct {
	FullName      string
	HTMLURL       string
	Language      string
	Stars         int
	LicenseName   string
	OwnerAvatar   string
	DefaultBranch string
}

// RemoteTreeEntry is one entry of a recursive repository tree.
type RemoteTreeEntry struct {
	Path string
	Sha  string
	Type string
	Size int
}

// IsBlob reports whether the entry is a file.
func (e RemoteTreeEntry) IsBlob() bool { return e.Type == "blob" }

// RemoteTree is a recursive file listing at one tree sha.
type RemoteTree struct {
	Sha       string
	Entries   []RemoteTreeEntry
	Truncated bool
}

// RateLimit is the request budget reported by the remote host.
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     int64
}

// RemoteRepositoryConnector fetches repository content from a hosted version-control API.
type RemoteRepositoryConnector interface {
	FetchRepository(ctx context.Context, fullName string) (*RemoteRepository, error)
	// FetchTree lists the tree at sha recursively. sha may be a branch name.
	FetchTree(ctx context.Context, fullName, sha string) (*RemoteTree, error)
	FetchBlob(ctx context.Context, fullName, sha string) ([]byte, error)
}
