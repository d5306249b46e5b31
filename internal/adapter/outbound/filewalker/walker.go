// Package filewalker enumerates source files of the local repository pool.
package filewalker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"snippetcorpus/internal/application/common/slogger"
	"snippetcorpus/internal/domain/valueobject"
)

// skippedDirectories are never descended into.
//
//nolint:gochecknoglobals // fixed lookup table
var skippedDirectories = map[string]bool{
	".git": true,
}

// Walker implements outbound.RepositoryWalker on the local filesystem.
type Walker struct{}

// NewWalker creates a filesystem walker.
func NewWalker() *Walker {
	return &Walker{}
}

// Walk recursively collects the files under root that are collected for language. Entries
// that cannot be read are logged and skipped. A missing or unreadable root yields no files;
// only a cancelled context fails the walk.
func (w *Walker) Walk(ctx context.Context, root, language string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		slogger.Warn(ctx, "Repository pool not found", slogger.Fields2("root", root, "error", err.Error()))
		return nil, nil
	}
	if !info.IsDir() {
		slogger.Warn(ctx, "Repository pool is not a directory", slogger.Field("root", root))
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			slogger.Warn(ctx, "Skipping unreadable entry", slogger.Fields2(
				"path", path,
				"error", err.Error(),
			))
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && skippedDirectories[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if !valueobject.MatchesLanguage(path, language) {
			return nil
		}
		if d.Type().IsRegular() || (d.Type()&fs.ModeSymlink != 0 && isRegularTarget(ctx, path)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	slogger.Debug(ctx, "Repository pool walked", slogger.Fields3(
		"root", root,
		"language", language,
		"files", len(files),
	))
	return files, nil
}

// isRegularTarget reports whether a symlinked file resolves to a regular file. Symlinked
// directories are not followed.
func isRegularTarget(ctx context.Context, path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		slogger.Warn(ctx, "Skipping dangling symlink", slogger.Fields2("path", path, "error", err.Error()))
		return false
	}
	return info.Mode().IsRegular()
}

// ReadFile reads a whole source file.
func (w *Walker) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("source file vanished: %w", err)
		}
		return nil, fmt.Errorf("read source file: %w", err)
	}
	return content, nil
}
