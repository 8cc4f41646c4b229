package releasecmd_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacroPower/shipper/pkg/pathutil"
	"github.com/MacroPower/shipper/pkg/releasecmd"
	"github.com/MacroPower/shipper/pkg/releasetest"
)

func TestNewPipeline(t *testing.T) {
	t.Parallel()

	t.Run("missing root", func(t *testing.T) {
		t.Parallel()

		_, err := releasecmd.NewPipeline(filepath.Join(t.TempDir(), "nope"))
		require.ErrorIs(t, err, releasecmd.ErrPathResolution)
	})

	t.Run("reads config from root", func(t *testing.T) {
		t.Parallel()

		proj := releasetest.NewProject(t)
		cfgPath := filepath.Join(proj.Root, releasecmd.DefaultConfigFile)
		require.NoError(t, os.WriteFile(cfgPath, []byte("stage_timeout: 30s\nstages:\n  - name: sign\n"), 0o600))

		p, err := releasecmd.NewPipeline(proj.Root)
		require.NoError(t, err)

		assert.Equal(t, 30*time.Second, p.StageTimeout)

		stages := p.Stages()
		require.Len(t, stages, 1)
		assert.Equal(t, "sign", stages[0].Name)
		assert.Equal(t, []string{p.RootDir.Join("scripts", "sign")}, stages[0].Command)
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		proj := releasetest.NewProject(t)
		cfgPath := filepath.Join(proj.Root, releasecmd.DefaultConfigFile)
		require.NoError(t, os.WriteFile(cfgPath, []byte("stages: ["), 0o600))

		_, err := releasecmd.NewPipeline(proj.Root)
		require.ErrorIs(t, err, releasecmd.ErrInvalidConfig)
	})
}

func TestNewPipelineFromRepo(t *testing.T) {
	t.Parallel()

	proj := releasetest.NewProject(t)
	require.NoError(t, os.MkdirAll(filepath.Join(proj.Root, ".git"), 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(proj.Root, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0o600))

	nested := filepath.Join(proj.Root, "scripts")

	p, err := releasecmd.NewPipelineFromRepo(nested)
	require.NoError(t, err)

	want, err := pathutil.ResolveDir(proj.Root)
	require.NoError(t, err)
	assert.Equal(t, want, p.RootDir)

	t.Run("no repository", func(t *testing.T) {
		t.Parallel()

		_, err := releasecmd.NewPipelineFromRepo(t.TempDir())
		require.ErrorIs(t, err, releasecmd.ErrPathResolution)
	})
}

func TestNewPipelineFromScript(t *testing.T) {
	t.Parallel()

	proj := releasetest.NewProject(t)
	proj.AddStage("release", 0)

	p, err := releasecmd.NewPipelineFromScript(proj.StagePath("release"))
	require.NoError(t, err)

	want, err := pathutil.ResolveDir(proj.Root)
	require.NoError(t, err)
	assert.Equal(t, want, p.RootDir)
}
