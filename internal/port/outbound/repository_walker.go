package outbound

import "context"

// RepositoryWalker enumerates and reads source files of the local repository pool.
type RepositoryWalker interface {
	// Walk returns the files under root whose extension is collected for language, or every
	// code-bearing file when language is empty. Entries that cannot be read are skipped.
	Walk(ctx context.Context, root, language string) ([]string, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
}
