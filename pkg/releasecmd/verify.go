package releasecmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

var ErrStageNotExecutable = errors.New("stage command not executable")

// Verify checks that every selected stage resolves to an executable command,
// without invoking anything. Checks are fanned out concurrently.
func (p *Pipeline) Verify(ctx context.Context, names ...string) error {
	stages, err := selectStages(p.Stages(), names)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, stage := range stages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("stage %q: %w", stage.Name, err)
			}

			err := verifyCommand(stage.Command[0])
			if err != nil {
				return fmt.Errorf("%w: stage %q: %w", ErrStageNotExecutable, stage.Name, err)
			}

			return nil
		})
	}

	return g.Wait() //nolint:wrapcheck // Errors are wrapped per stage.
}

func verifyCommand(command string) error {
	// Bare names are looked up on PATH, like the shell would.
	if !strings.Contains(command, string(filepath.Separator)) {
		_, err := exec.LookPath(command)
		if err != nil {
			return fmt.Errorf("lookup: %w", err)
		}

		return nil
	}

	fi, err := os.Stat(command)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	if fi.IsDir() || fi.Mode()&0o111 == 0 {
		return fmt.Errorf("%s: not an executable file", command)
	}

	return nil
}
