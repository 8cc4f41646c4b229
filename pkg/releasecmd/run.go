package releasecmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/MacroPower/shipper/pkg/executil"
)

var ErrRunAborted = errors.New("run aborted")

// Run resolves the release context and runs the pipeline's stages in
// declared order. When names are given, only the matching stages run, still
// in declared order. Unknown names fail before the context is resolved.
//
// One stage runs to completion before the next begins. The first failing
// stage aborts the remainder and is surfaced as a [*StageError], unless
// continue_on_error is set, in which case all failures are aggregated.
// When total_timeout is set, the whole run is bounded; expiry kills the
// stage in flight and surfaces [ErrRunAborted].
func (p *Pipeline) Run(ctx context.Context, names ...string) error {
	stages, err := selectStages(p.Stages(), names)
	if err != nil {
		return err
	}

	logger := slog.With(
		slog.String("cmd", "release_run"),
		slog.String("root", p.RootDir.String()),
	)

	relCtx, err := ResolveContext(p.RootDir, p.Config.ResolveVersionCommand(p.RootDir), p.StageTimeout)
	if err != nil {
		return err
	}

	logger = logger.With(
		slog.String("version", relCtx.Version),
		slog.String("run_id", relCtx.RunID),
	)
	logger.Info("resolved release context")

	if p.TotalTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, p.TotalTimeout)
		defer cancel()
	}

	p.broadcastEvent(EventSetStageTotal(len(stages)))

	var merr error

	for _, stage := range stages {
		err := ctx.Err()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRunAborted, err)
		}

		p.broadcastEvent(EventStartingStage(stage.Name))

		stageLogger := logger.With(slog.String("stage", stage.Name))
		stageLogger.Info("running stage")

		err = p.runStage(ctx, relCtx, stage)

		p.broadcastEvent(EventFinishedStage{Stage: stage.Name, Err: err})

		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", ErrRunAborted, err)
			}

			if !p.Config.ContinueOnError {
				return err
			}

			merr = multierror.Append(merr, err)

			continue
		}

		stageLogger.Info("finished stage")
	}

	if merr != nil {
		return merr
	}

	logger.Info("release complete")

	return nil
}

func (p *Pipeline) runStage(ctx context.Context, relCtx Context, stage Stage) error {
	if p.DryRun {
		fmt.Fprintf(p.Out, "%s\t%s\n", stage.Name, strings.Join(stage.Command, " "))

		return nil
	}

	// The overall deadline, when closer than the stage timeout, bounds this
	// stage instead.
	timeout := p.StageTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	//nolint:gosec // Stage commands are operator-provided by design.
	cmd := exec.Command(stage.Command[0], stage.Command[1:]...)
	cmd.Dir = relCtx.RootDir.String()
	cmd.Env = append(os.Environ(), relCtx.Env()...)
	cmd.Env = append(cmd.Env, "SHIPPER_STAGE="+stage.Name)

	for k, v := range p.Config.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	out, runErr := executil.RunCommandExt(cmd, executil.CmdOpts{
		Timeout:       timeout,
		CaptureStderr: true,
	})

	if p.LogDir != "" {
		err := writeStageLog(p.LogDir, stage.Name, out)
		if err != nil {
			slog.Warn("failed to archive stage log",
				slog.String("stage", stage.Name),
				slog.Any("err", err),
			)
		}
	}

	if runErr != nil {
		exitCode := 1

		var cmdErr *executil.CmdError
		if errors.As(runErr, &cmdErr) && cmdErr.ExitCode > 0 {
			exitCode = cmdErr.ExitCode
		}

		return &StageError{Name: stage.Name, ExitCode: exitCode, cause: runErr}
	}

	return nil
}
