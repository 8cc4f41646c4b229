package pathutil

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNoRepoRoot = errors.New("no git repository found")

// FindRepoRoot returns the closest (innermost) git repository root for the
// provided path by searching bottom-up from path toward /. This matches the
// behavior of git rev-parse --show-toplevel, correctly resolving worktrees
// nested inside a parent repository. If no git repository is found, it will
// return an error.
func FindRepoRoot(path string) (ResolvedRoot, error) {
	// Look for a `.git` directory containing a `HEAD` file.
	pathAbs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	currentDir := pathAbs
	for {
		ok, err := isRepoRoot(currentDir)
		if err == nil && ok {
			return ResolveDir(currentDir)
		}

		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("%w: searched from %s", ErrNoRepoRoot, pathAbs)
}

func isRepoRoot(dir string) (bool, error) {
	dotGit := filepath.Join(dir, ".git")

	fi, err := os.Lstat(dotGit)
	if err != nil {
		return false, fmt.Errorf("%s: %w", dotGit, err)
	}

	var headPath string

	switch {
	case fi.IsDir():
		headPath = filepath.Join(dotGit, "HEAD")
	default:
		gitDir, gitFileErr := resolveGitFile(dotGit, dir)
		if gitFileErr != nil {
			return false, nil //nolint:nilerr // Intentionally skip malformed .git files.
		}

		headPath = filepath.Join(gitDir, "HEAD")
	}

	head, err := os.Lstat(headPath)
	if err != nil {
		return false, fmt.Errorf("%s: %w", headPath, err)
	}

	return !head.IsDir(), nil
}

// resolveGitFile reads a `.git` file (as used in git worktrees) and resolves
// the gitdir path it points to. The file is expected to contain a single line
// in the format `gitdir: <path>`. Relative paths are resolved against
// baseDir.
func resolveGitFile(dotGitPath, baseDir string) (string, error) {
	f, err := os.Open(dotGitPath) //nolint:gosec // dotGitPath is constructed from filepath.Join, not user input.
	if err != nil {
		return "", fmt.Errorf("open git file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Best-effort close.

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", errors.New("empty git file")
	}

	line := strings.TrimSpace(scanner.Text())

	gitDir, found := strings.CutPrefix(line, "gitdir: ")
	if !found {
		return "", errors.New("missing gitdir prefix")
	}

	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(baseDir, gitDir)
	}

	return filepath.Clean(gitDir), nil
}
