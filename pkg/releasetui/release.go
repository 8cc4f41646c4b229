package releasetui

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MacroPower/shipper/pkg/log"
	"github.com/MacroPower/shipper/pkg/releasecmd"
)

// PipelineCommander is the subset of [releasecmd.Pipeline] the TUI drives.
type PipelineCommander interface {
	Run(ctx context.Context, stages ...string) error
	Verify(ctx context.Context, stages ...string) error
	Subscribe(f func(any))
}

// ReleaseTUI runs pipeline commands while rendering their progress.
type ReleaseTUI struct {
	pipeline PipelineCommander
	p        *tea.Program
	w        io.Writer
}

// NewReleaseTUI creates a [ReleaseTUI] writing to w. The default slog logger
// is redirected into the TUI so log lines appear above the live view.
func NewReleaseTUI(w io.Writer, logLevel string, pipeline PipelineCommander) (*ReleaseTUI, error) {
	r := &ReleaseTUI{
		pipeline: pipeline,
		w:        w,
	}

	r.pipeline.Subscribe(r.broadcastEvent)

	h, err := log.CreateHandlerWithStrings(r, logLevel, log.FormatText)
	if err != nil {
		return nil, fmt.Errorf("create log handler: %w", err)
	}

	slog.SetDefault(slog.New(h))

	return r, nil
}

func (r *ReleaseTUI) broadcastEvent(evt any) {
	if r.p != nil {
		r.p.Send(evt)
	}
}

func (r *ReleaseTUI) Write(p []byte) (int, error) {
	r.broadcastEvent(teaMsgWriteLog(string(p)))

	return len(p), nil
}

func (r *ReleaseTUI) Subscribe(f func(any)) {
	r.pipeline.Subscribe(f)
}

// Run runs the pipeline's stages behind a [RunModel]. The pipeline's error,
// if any, is returned after the view has drained so callers can propagate
// the failing stage's exit status.
func (r *ReleaseTUI) Run(ctx context.Context, stages ...string) error {
	r.p = tea.NewProgram(NewRunModel(), tea.WithOutput(r.w))

	var runErr error

	done := make(chan struct{})

	go func() {
		defer close(done)

		runErr = r.pipeline.Run(ctx, stages...)
		r.broadcastEvent(releasecmd.EventDone{Err: runErr})
	}()

	_, err := r.p.Run()
	if err != nil {
		return fmt.Errorf("launch tui: %w", err)
	}

	<-done

	return runErr
}

// Verify checks the pipeline's stage commands behind an [ActionModel].
func (r *ReleaseTUI) Verify(ctx context.Context, stages ...string) error {
	r.p = tea.NewProgram(NewActionModel("verification", "verifying"), tea.WithOutput(r.w))

	var verifyErr error

	done := make(chan struct{})

	go func() {
		defer close(done)

		verifyErr = r.pipeline.Verify(ctx, stages...)
		r.broadcastEvent(releasecmd.EventDone{Err: verifyErr})
	}()

	_, err := r.p.Run()
	if err != nil {
		return fmt.Errorf("launch tui: %w", err)
	}

	<-done

	return verifyErr
}
