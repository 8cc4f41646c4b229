package releasecmd_test

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacroPower/shipper/pkg/releasecmd"
	"github.com/MacroPower/shipper/pkg/releasetest"
)

func TestVerify(t *testing.T) {
	t.Parallel()

	t.Run("all stages executable", func(t *testing.T) {
		t.Parallel()

		proj := releasetest.NewProject(t)
		proj.AddStage("alpha", 0)
		proj.AddStage("beta", 0)

		p, err := releasecmd.NewPipeline(proj.Root, releasecmd.WithConfig(proj.Config("alpha", "beta")))
		require.NoError(t, err)

		require.NoError(t, p.Verify(t.Context()))
		assert.Empty(t, proj.Invocations(), "verify must not invoke any stage")
	})

	t.Run("missing stage script", func(t *testing.T) {
		t.Parallel()

		proj := releasetest.NewProject(t)
		proj.AddStage("alpha", 0)

		p, err := releasecmd.NewPipeline(proj.Root, releasecmd.WithConfig(proj.Config("alpha", "beta")))
		require.NoError(t, err)

		err = p.Verify(t.Context())
		require.ErrorIs(t, err, releasecmd.ErrStageNotExecutable)
	})

	t.Run("bare name resolves on PATH", func(t *testing.T) {
		t.Parallel()

		proj := releasetest.NewProject(t)

		cfg := proj.Config()
		cfg.Stages = []releasecmd.Stage{{Name: "cleanup", Command: []string{"sh", "-c", "true"}}}

		p, err := releasecmd.NewPipeline(proj.Root, releasecmd.WithConfig(cfg))
		require.NoError(t, err)

		require.NoError(t, p.Verify(t.Context()))
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		proj := releasetest.NewProject(t)
		proj.AddStage("alpha", 0)

		p, err := releasecmd.NewPipeline(proj.Root, releasecmd.WithConfig(proj.Config("alpha")))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		err = p.Verify(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("unknown selection", func(t *testing.T) {
		t.Parallel()

		proj := releasetest.NewProject(t)
		proj.AddStage("alpha", 0)

		p, err := releasecmd.NewPipeline(proj.Root, releasecmd.WithConfig(proj.Config("alpha")))
		require.NoError(t, err)

		err = p.Verify(t.Context(), "nonesuch")
		require.ErrorIs(t, err, releasecmd.ErrUnknownStage)
	})
}

func TestRunArchivesStageLogs(t *testing.T) {
	t.Parallel()

	proj := releasetest.NewProject(t)
	proj.AddStage("alpha", 0)

	logDir := filepath.Join(proj.Root, "dist", "logs")

	p, err := releasecmd.NewPipeline(proj.Root,
		releasecmd.WithConfig(proj.Config("alpha")),
		releasecmd.WithLogDir(logDir),
	)
	require.NoError(t, err)

	require.NoError(t, p.Run(t.Context()))

	f, err := os.Open(filepath.Join(logDir, "alpha.log.gz"))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck // Test fixture.

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)

	content, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(content), "running alpha")
}
