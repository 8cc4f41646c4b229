package pathutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacroPower/shipper/pkg/pathutil"
)

func gitDirRepo(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0o600))

	return root
}

func TestFindRepoRoot(t *testing.T) {
	t.Parallel()

	t.Run("at root", func(t *testing.T) {
		t.Parallel()

		root := gitDirRepo(t)

		got, err := pathutil.FindRepoRoot(root)
		require.NoError(t, err)

		want, err := pathutil.ResolveDir(root)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("from nested directory", func(t *testing.T) {
		t.Parallel()

		root := gitDirRepo(t)
		nested := filepath.Join(root, "scripts", "release")
		require.NoError(t, os.MkdirAll(nested, 0o750))

		got, err := pathutil.FindRepoRoot(nested)
		require.NoError(t, err)

		want, err := pathutil.ResolveDir(root)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("worktree git file", func(t *testing.T) {
		t.Parallel()

		parent := gitDirRepo(t)

		// Simulate a worktree: .git is a file pointing into the parent repo.
		wtGitDir := filepath.Join(parent, ".git", "worktrees", "wt")
		require.NoError(t, os.MkdirAll(wtGitDir, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(wtGitDir, "HEAD"), []byte("ref: refs/heads/wt\n"), 0o600))

		worktree := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(worktree, ".git"), []byte("gitdir: "+wtGitDir+"\n"), 0o600))

		got, err := pathutil.FindRepoRoot(worktree)
		require.NoError(t, err)

		want, err := pathutil.ResolveDir(worktree)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("malformed git file is skipped", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("not a gitdir line\n"), 0o600))

		_, err := pathutil.FindRepoRoot(dir)
		require.ErrorIs(t, err, pathutil.ErrNoRepoRoot)
	})

	t.Run("no repository", func(t *testing.T) {
		t.Parallel()

		_, err := pathutil.FindRepoRoot(t.TempDir())
		require.ErrorIs(t, err, pathutil.ErrNoRepoRoot)
	})
}
