package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacroPower/shipper/pkg/releasecmd"
	"github.com/MacroPower/shipper/pkg/releasetest"
)

func writeProjectConfig(t *testing.T, proj *releasetest.Project, stages ...string) {
	t.Helper()

	content := "version_command: [\"sh\", \"-c\", \"echo 9.9.9\"]\nstages:\n"
	for _, s := range stages {
		content += "  - name: " + s + "\n"
	}

	err := os.WriteFile(filepath.Join(proj.Root, releasecmd.DefaultConfigFile), []byte(content), 0o600)
	require.NoError(t, err)
}

func TestReleaseListCmd(t *testing.T) {
	t.Parallel()

	proj := releasetest.NewProject(t)
	writeProjectConfig(t, proj, "changelog", "sign")

	stdout, stderr, err := execute(t, "release", "list", "--path", proj.Root)
	require.NoError(t, err)
	assert.Empty(t, stderr)

	assert.Contains(t, stdout, "changelog\t")
	assert.Contains(t, stdout, "sign\t")
	assert.Contains(t, stdout, filepath.Join("scripts", "sign"))
}

func TestReleaseListDefaultStages(t *testing.T) {
	t.Parallel()

	proj := releasetest.NewProject(t)

	stdout, _, err := execute(t, "release", "list", "--path", proj.Root)
	require.NoError(t, err)

	for _, name := range releasecmd.DefaultStageNames {
		assert.Contains(t, stdout, name+"\t")
	}
}

func TestReleaseRunCmd(t *testing.T) {
	t.Parallel()

	proj := releasetest.NewProject(t)
	proj.AddStage("changelog", 0)
	proj.AddStage("sign", 0)
	writeProjectConfig(t, proj, "changelog", "sign")

	_, _, err := execute(t, "release", "run", "--path", proj.Root, "--quiet")
	require.NoError(t, err)

	assert.Equal(t, []string{"changelog", "sign"}, proj.Invocations())
}

func TestReleaseRunCmdStageFailure(t *testing.T) {
	t.Parallel()

	proj := releasetest.NewProject(t)
	proj.AddStage("changelog", 0)
	proj.AddStage("sign", 4)
	proj.AddStage("upload-pypi", 0)
	writeProjectConfig(t, proj, "changelog", "sign", "upload-pypi")

	_, _, err := execute(t, "release", "run", "--path", proj.Root, "--quiet")
	require.Error(t, err)

	var stageErr *releasecmd.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "sign", stageErr.Name)
	assert.Equal(t, 4, stageErr.ExitCode)

	assert.Equal(t, []string{"changelog", "sign"}, proj.Invocations())
}

func TestReleaseRunCmdDryRun(t *testing.T) {
	t.Parallel()

	proj := releasetest.NewProject(t)
	proj.AddStage("changelog", 0)
	writeProjectConfig(t, proj, "changelog")

	stdout, _, err := execute(t, "release", "run", "--path", proj.Root, "--quiet", "--dry-run")
	require.NoError(t, err)

	assert.Empty(t, proj.Invocations())

	// The plan goes to stdout so it shows at the default log level.
	assert.Contains(t, stdout, "changelog\t")
	assert.Contains(t, stdout, filepath.Join("scripts", "changelog"))
}

func TestReleaseRunCmdGitRoot(t *testing.T) {
	t.Parallel()

	proj := releasetest.NewProject(t)
	proj.AddStage("changelog", 0)
	writeProjectConfig(t, proj, "changelog")

	require.NoError(t, os.MkdirAll(filepath.Join(proj.Root, ".git"), 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(proj.Root, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0o600))

	// The root is discovered from a nested directory.
	nested := filepath.Join(proj.Root, "scripts")

	_, _, err := execute(t, "release", "run", "--path", nested, "--git-root", "--quiet")
	require.NoError(t, err)

	assert.Equal(t, []string{"changelog"}, proj.Invocations())
}

func TestReleaseRunCmdTotalTimeout(t *testing.T) {
	t.Parallel()

	proj := releasetest.NewProject(t)
	proj.AddSlowStage("changelog", 5)
	writeProjectConfig(t, proj, "changelog")

	_, _, err := execute(t, "release", "run", "--path", proj.Root, "--quiet", "--total-timeout", "300ms")
	require.ErrorIs(t, err, releasecmd.ErrRunAborted)
}

func TestReleaseVerifyCmd(t *testing.T) {
	t.Parallel()

	proj := releasetest.NewProject(t)
	proj.AddStage("changelog", 0)
	writeProjectConfig(t, proj, "changelog", "sign")

	_, _, err := execute(t, "release", "verify", "--path", proj.Root, "--quiet")
	require.ErrorIs(t, err, releasecmd.ErrStageNotExecutable)

	proj.AddStage("sign", 0)

	_, _, err = execute(t, "release", "verify", "--path", proj.Root, "--quiet")
	require.NoError(t, err)
}

func TestReleaseRunCmdExternalConfig(t *testing.T) {
	t.Parallel()

	proj := releasetest.NewProject(t)
	proj.AddStage("cleanup", 0)

	cfgPath := filepath.Join(t.TempDir(), "pipeline.yaml")
	content := "version_command: [\"sh\", \"-c\", \"echo 1.0.0\"]\nstages:\n  - name: cleanup\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	_, _, err := execute(t, "release", "run", "--path", proj.Root, "--config", cfgPath, "--quiet")
	require.NoError(t, err)

	assert.Equal(t, []string{"cleanup"}, proj.Invocations())
}

func TestReleaseRunCmdMissingRoot(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "release", "run", "--path", filepath.Join(t.TempDir(), "nope"), "--quiet")
	require.ErrorIs(t, err, releasecmd.ErrPathResolution)
}
