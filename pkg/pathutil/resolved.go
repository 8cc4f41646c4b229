// Package pathutil resolves filesystem paths for the release driver.
//
// All paths handed to release stages are canonical: symbolic links are
// resolved recursively, relative segments are cleaned, and trailing
// separators are removed.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrMaxNestingLevelReached = errors.New("maximum nesting level reached")
	ErrResolvePath            = errors.New("failed to resolve path")
	ErrNotADirectory          = errors.New("path is not a directory")
)

// ResolvedRoot represents a canonicalized project root directory, and is
// intended to prevent unintentional use of an unverified path. It is always
// an absolute path with no trailing separator.
type ResolvedRoot string

// String returns the resolved absolute root path as a string.
func (r ResolvedRoot) String() string {
	return string(r)
}

// Join resolves elem relative to the root.
func (r ResolvedRoot) Join(elem ...string) string {
	return filepath.Join(append([]string{string(r)}, elem...)...)
}

// ResolveSymbolicLinkRecursive resolves the symlink path recursively to its
// canonical path on the file system, with a maximum nesting level of
// maxDepth. If path is not a symlink, returns the verbatim copy of path and
// err of nil.
func ResolveSymbolicLinkRecursive(path string, maxDepth int) (string, error) {
	resolved, err := os.Readlink(path)
	if err != nil {
		// path is not a symbolic link
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return path, nil
		}

		return "", fmt.Errorf("failed to read link for path %q: %w", path, err)
	}

	if maxDepth == 0 {
		return "", ErrMaxNestingLevelReached
	}

	// If we resolved to a relative symlink, make sure we use the absolute
	// path for further resolving.
	if !strings.HasPrefix(resolved, string(os.PathSeparator)) {
		resolved = filepath.Join(filepath.Dir(path), resolved)
	}

	return ResolveSymbolicLinkRecursive(resolved, maxDepth-1)
}

// ResolveScriptRoot returns the canonical project root for the given driver
// script path, which is expected to live one directory below the root (the
// root is parent(parent(scriptPath))). The result has symlinks resolved,
// relative segments cleaned, and no trailing separator. It fails when the
// resolved root does not exist or is not a directory.
func ResolveScriptRoot(scriptPath string) (ResolvedRoot, error) {
	absPath, err := filepath.Abs(scriptPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolvePath, err)
	}

	delinked, err := ResolveSymbolicLinkRecursive(absPath, 10)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolvePath, err)
	}

	return ResolveDir(filepath.Dir(filepath.Dir(delinked)))
}

// ResolveDir canonicalizes path and verifies that it is an existing
// directory.
func ResolveDir(path string) (ResolvedRoot, error) {
	absPath, err := filepath.Abs(strings.TrimSuffix(path, string(os.PathSeparator)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolvePath, err)
	}

	delinked, err := ResolveSymbolicLinkRecursive(absPath, 10)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolvePath, err)
	}

	root := filepath.Clean(delinked)

	fi, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolvePath, err)
	}

	if !fi.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	return ResolvedRoot(root), nil
}
