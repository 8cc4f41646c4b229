package releasecmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MacroPower/shipper/pkg/pathutil"
)

// Pipeline drives an ordered sequence of release stages for one project
// root.
type Pipeline struct {
	Config       *Config
	Out          io.Writer
	RootDir      pathutil.ResolvedRoot
	LogDir       string
	subs         []func(any)
	StageTimeout time.Duration
	TotalTimeout time.Duration
	DryRun       bool
}

// NewPipeline creates a [Pipeline] for the project at basePath, reading the
// pipeline config at `<root>/release.yaml` unless one is provided via
// [WithConfig].
func NewPipeline(basePath string, opts ...PipelineOpts) (*Pipeline, error) {
	root, err := pathutil.ResolveDir(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathResolution, err)
	}

	p := &Pipeline{
		RootDir:      root,
		Out:          os.Stdout,
		StageTimeout: 15 * time.Minute,
		subs:         []func(any){},
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.Config == nil {
		cfg, err := LoadConfig(root.Join(DefaultConfigFile))
		if err != nil {
			return nil, err
		}

		p.Config = cfg
	}

	if p.Config.StageTimeout != 0 {
		p.StageTimeout = time.Duration(p.Config.StageTimeout)
	}

	if p.Config.TotalTimeout != 0 {
		p.TotalTimeout = time.Duration(p.Config.TotalTimeout)
	}

	return p, nil
}

// NewPipelineFromScript creates a [Pipeline] for the project root enclosing
// the given driver script path (the root is two levels above the script).
func NewPipelineFromScript(scriptPath string, opts ...PipelineOpts) (*Pipeline, error) {
	root, err := pathutil.ResolveScriptRoot(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathResolution, err)
	}

	return NewPipeline(root.String(), opts...)
}

// NewPipelineFromRepo creates a [Pipeline] rooted at the git repository
// enclosing path, as an alternative to script-relative resolution.
func NewPipelineFromRepo(path string, opts ...PipelineOpts) (*Pipeline, error) {
	root, err := pathutil.FindRepoRoot(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathResolution, err)
	}

	return NewPipeline(root.String(), opts...)
}

type PipelineOpts func(*Pipeline)

// WithConfig uses cfg instead of reading `<root>/release.yaml`.
func WithConfig(cfg *Config) PipelineOpts {
	return func(p *Pipeline) {
		p.Config = cfg
	}
}

// WithStageTimeout bounds each individual stage. The config file value, if
// set, takes precedence.
func WithStageTimeout(timeout time.Duration) PipelineOpts {
	return func(p *Pipeline) {
		p.StageTimeout = timeout
	}
}

// WithTotalTimeout bounds the whole run across all stages. The config file
// value, if set, takes precedence.
func WithTotalTimeout(timeout time.Duration) PipelineOpts {
	return func(p *Pipeline) {
		p.TotalTimeout = timeout
	}
}

// WithDryRun prints the resolved plan without invoking any stage.
func WithDryRun(dryRun bool) PipelineOpts {
	return func(p *Pipeline) {
		p.DryRun = dryRun
	}
}

// WithOutput directs plan output (dry runs) to w instead of stdout.
func WithOutput(w io.Writer) PipelineOpts {
	return func(p *Pipeline) {
		p.Out = w
	}
}

// WithLogDir archives each stage's combined output to
// `<logDir>/<stage>.log.gz`.
func WithLogDir(logDir string) PipelineOpts {
	return func(p *Pipeline) {
		p.LogDir = logDir
	}
}

// Stages returns the resolved, ordered stage sequence.
func (p *Pipeline) Stages() []Stage {
	return p.Config.ResolveStages(p.RootDir)
}

// Subscribe registers f to receive pipeline events.
func (p *Pipeline) Subscribe(f func(any)) {
	p.subs = append(p.subs, f)
}

func (p *Pipeline) broadcastEvent(evt any) {
	for _, sub := range p.subs {
		sub(evt)
	}
}
