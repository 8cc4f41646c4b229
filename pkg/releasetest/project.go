package releasetest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MacroPower/shipper/pkg/releasecmd"
)

// Project is a throwaway project root with executable stage scripts. Every
// script appends its stage name to an invocation log before exiting with the
// configured code.
type Project struct {
	t testing.TB

	// Root is the project root directory.
	Root string
}

// NewProject creates a project root with a `scripts/` directory.
func NewProject(t testing.TB) *Project {
	t.Helper()

	root := t.TempDir()
	err := os.MkdirAll(filepath.Join(root, "scripts"), 0o750)
	require.NoError(t, err)

	return &Project{t: t, Root: root}
}

// AddStage installs an executable stage script named name that exits with
// exitCode.
func (p *Project) AddStage(name string, exitCode int) {
	p.t.Helper()

	script := fmt.Sprintf(
		"#!/bin/sh\nprintf '%%s\\n' \"$SHIPPER_STAGE\" >> %q\necho \"running $SHIPPER_STAGE\"\nexit %d\n",
		p.logPath(), exitCode,
	)

	err := os.WriteFile(p.StagePath(name), []byte(script), 0o700) //nolint:gosec // Executable fixture.
	require.NoError(p.t, err)
}

// AddSlowStage installs a stage script that sleeps for the given number of
// seconds after recording its invocation, then exits successfully.
func (p *Project) AddSlowStage(name string, seconds int) {
	p.t.Helper()

	script := fmt.Sprintf(
		"#!/bin/sh\nprintf '%%s\\n' \"$SHIPPER_STAGE\" >> %q\nsleep %d\n",
		p.logPath(), seconds,
	)

	err := os.WriteFile(p.StagePath(name), []byte(script), 0o700) //nolint:gosec // Executable fixture.
	require.NoError(p.t, err)
}

// AddEnvDumpStage installs a stage script that dumps selected environment
// variables to `<root>/<name>.env`, one KEY=VALUE per line.
func (p *Project) AddEnvDumpStage(name string, keys ...string) {
	p.t.Helper()

	var b strings.Builder

	b.WriteString("#!/bin/sh\n")
	b.WriteString(fmt.Sprintf("printf '%%s\\n' \"$SHIPPER_STAGE\" >> %q\n", p.logPath()))

	dumpPath := filepath.Join(p.Root, name+".env")
	for _, key := range keys {
		b.WriteString(fmt.Sprintf("printf '%s=%%s\\n' \"$%s\" >> %q\n", key, key, dumpPath))
	}

	err := os.WriteFile(p.StagePath(name), []byte(b.String()), 0o700) //nolint:gosec // Executable fixture.
	require.NoError(p.t, err)
}

// StagePath returns the path of the named stage script.
func (p *Project) StagePath(name string) string {
	return filepath.Join(p.Root, "scripts", name)
}

// EnvDump returns the parsed output of an [AddEnvDumpStage] stage.
func (p *Project) EnvDump(name string) map[string]string {
	p.t.Helper()

	data, err := os.ReadFile(filepath.Join(p.Root, name+".env")) //nolint:gosec // Test fixture path.
	require.NoError(p.t, err)

	env := map[string]string{}

	for line := range strings.SplitSeq(strings.TrimSpace(string(data)), "\n") {
		k, v, ok := strings.Cut(line, "=")
		require.True(p.t, ok, "malformed env dump line: %q", line)
		env[k] = v
	}

	return env
}

// Invocations returns the stage names recorded so far, in invocation order.
func (p *Project) Invocations() []string {
	p.t.Helper()

	data, err := os.ReadFile(p.logPath())
	if os.IsNotExist(err) {
		return nil
	}

	require.NoError(p.t, err)

	return strings.Fields(string(data))
}

// Config returns a pipeline config declaring the given stages in order, with
// a version command that reports "1.2.3".
func (p *Project) Config(stages ...string) *releasecmd.Config {
	cfg := &releasecmd.Config{
		VersionCommand: []string{"sh", "-c", "echo 1.2.3"},
	}
	for _, name := range stages {
		cfg.Stages = append(cfg.Stages, releasecmd.Stage{Name: name})
	}

	return cfg
}

func (p *Project) logPath() string {
	return filepath.Join(p.Root, "invocations.log")
}
