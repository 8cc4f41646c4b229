package releasecmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/MacroPower/shipper/pkg/pathutil"
)

// DefaultConfigFile is the pipeline configuration file name, relative to the
// project root.
const DefaultConfigFile = "release.yaml"

var (
	ErrInvalidConfig = errors.New("invalid pipeline config")
	ErrReadConfig    = errors.New("read pipeline config")
)

// Config declares a release pipeline. All fields are optional; the zero
// value resolves to the default stage sequence with executables looked up
// under `scripts/` in the project root.
type Config struct {
	// Env holds extra environment variables exported to every stage.
	Env map[string]string `yaml:"env,omitempty"`
	// StageDir is the directory, relative to the project root, holding the
	// default stage executables.
	StageDir string `yaml:"stage_dir,omitempty"`
	// VersionCommand is the argv reporting the project version on stdout.
	VersionCommand []string `yaml:"version_command,omitempty"`
	// Stages overrides the default stage sequence.
	Stages []Stage `yaml:"stages,omitempty"`
	// StageTimeout bounds each individual stage.
	StageTimeout Duration `yaml:"stage_timeout,omitempty"`
	// TotalTimeout bounds the whole run across all stages.
	TotalTimeout Duration `yaml:"total_timeout,omitempty"`
	// ContinueOnError runs remaining stages after a failure, aggregating
	// errors, instead of aborting at the first non-zero exit.
	ContinueOnError bool `yaml:"continue_on_error,omitempty"`
}

// Duration wraps [time.Duration] for YAML strings like "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	*d = Duration(parsed)

	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// LoadConfig reads the pipeline config at path. A missing file yields the
// zero config without error, so projects without a release.yaml get the
// default pipeline.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Operator-provided path.
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadConfig, err)
	}

	cfg := &Config{}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	err = cfg.validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	seen := map[string]bool{}

	for _, s := range c.Stages {
		if s.Name == "" {
			return fmt.Errorf("%w: stage with no name", ErrInvalidConfig)
		}

		if seen[s.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateStage, s.Name)
		}

		seen[s.Name] = true
	}

	return nil
}

// ResolveStages returns the pipeline's stage sequence with every command
// made concrete: stages declared without a command resolve to
// `<root>/<stage_dir>/<name>`.
func (c *Config) ResolveStages(root pathutil.ResolvedRoot) []Stage {
	stageDir := c.StageDir
	if stageDir == "" {
		stageDir = "scripts"
	}

	declared := c.Stages
	if len(declared) == 0 {
		declared = make([]Stage, 0, len(DefaultStageNames))
		for _, name := range DefaultStageNames {
			declared = append(declared, Stage{Name: name})
		}
	}

	stages := make([]Stage, 0, len(declared))

	for _, s := range declared {
		if len(s.Command) == 0 {
			s.Command = []string{root.Join(stageDir, s.Name)}
		}

		stages = append(stages, s)
	}

	return stages
}

// ResolveVersionCommand returns the configured version command, defaulting
// to importing the Python module named after the project root directory and
// printing its version attribute.
func (c *Config) ResolveVersionCommand(root pathutil.ResolvedRoot) []string {
	if len(c.VersionCommand) > 0 {
		return c.VersionCommand
	}

	module := strcase.ToSnake(filepath.Base(root.String()))

	return []string{
		"python3", "-c",
		fmt.Sprintf("import %s; print(%s.version.__version__)", module, module),
	}
}
