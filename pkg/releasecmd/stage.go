package releasecmd

import (
	"errors"
	"fmt"
)

// DefaultStageNames is the fixed, ordered release stage sequence. It is
// static: re-running the driver with no configuration change always yields
// this exact list.
var DefaultStageNames = []string{
	"prompt",
	"supportedsites",
	"cleanup",
	"update",
	"changelog",
	"build-python",
	"build-linux",
	"build-windows",
	"sign",
	"upload-pypi",
	"upload-git",
	"update-dev",
}

var (
	ErrUnknownStage   = errors.New("unknown stage")
	ErrDuplicateStage = errors.New("duplicate stage")
)

// Stage maps a stage name to the command that implements it. The command is
// an opaque external collaborator; the driver only observes its exit status.
type Stage struct {
	// Name identifies the stage in the declared order.
	Name string `yaml:"name"`
	// Command is the argv to invoke. When empty, the stage resolves to the
	// executable named after the stage inside the pipeline's stage directory.
	Command []string `yaml:"command,omitempty"`
}

// StageError reports a stage whose process exited unsuccessfully.
type StageError struct {
	cause    error
	Name     string
	ExitCode int
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed with exit code %d: %v", e.Name, e.ExitCode, e.cause)
}

func (e *StageError) Unwrap() error {
	return e.cause
}

// selectStages returns the subset of stages matching names, preserving the
// declared order. An empty selection returns all stages. Unknown names are
// an error, reported before anything runs.
func selectStages(stages []Stage, names []string) ([]Stage, error) {
	if len(names) == 0 {
		return stages, nil
	}

	byName := map[string]Stage{}
	for _, s := range stages {
		byName[s.Name] = s
	}

	selected := map[string]bool{}

	for _, name := range names {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStage, name)
		}

		selected[name] = true
	}

	matched := make([]Stage, 0, len(selected))

	for _, s := range stages {
		if selected[s.Name] {
			matched = append(matched, s)
		}
	}

	return matched, nil
}
