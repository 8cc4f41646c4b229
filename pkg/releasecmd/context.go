package releasecmd

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MacroPower/shipper/pkg/executil"
	"github.com/MacroPower/shipper/pkg/pathutil"
)

var (
	ErrPathResolution    = errors.New("path resolution failed")
	ErrVersionResolution = errors.New("version resolution failed")
)

// Context is the release context shared read-only by every stage. It is
// constructed once, before any stage runs, and passed by value.
type Context struct {
	// RootDir is the canonical project root directory.
	RootDir pathutil.ResolvedRoot
	// Version is the release version reported by the project itself.
	Version string
	// RunID uniquely identifies one driver invocation.
	RunID string
}

// Env returns the environment variables exported to every stage.
func (c Context) Env() []string {
	return []string{
		"ROOTDIR=" + c.RootDir.String(),
		"VERSION=" + c.Version,
		"SHIPPER_RUN_ID=" + c.RunID,
	}
}

// ResolveContext resolves the release context for root by running the
// project's version-reporting command (argv) inside root and capturing its
// trimmed stdout. It fails with [ErrVersionResolution] when the command
// cannot run or reports an empty version.
func ResolveContext(root pathutil.ResolvedRoot, versionCommand []string, timeout time.Duration) (Context, error) {
	if len(versionCommand) == 0 {
		return Context{}, fmt.Errorf("%w: no version command configured", ErrVersionResolution)
	}

	cmd := exec.Command(versionCommand[0], versionCommand[1:]...) //nolint:gosec // Operator-provided command.
	cmd.Dir = root.String()

	out, err := executil.RunCommandExt(cmd, executil.CmdOpts{
		Timeout:       timeout,
		CaptureStderr: false,
	})
	if err != nil {
		return Context{}, fmt.Errorf("%w: %w", ErrVersionResolution, err)
	}

	version := strings.TrimSpace(out)
	if version == "" {
		return Context{}, fmt.Errorf("%w: command %q reported an empty version", ErrVersionResolution, versionCommand[0])
	}

	return Context{
		RootDir: root,
		Version: version,
		RunID:   uuid.NewString(),
	}, nil
}
