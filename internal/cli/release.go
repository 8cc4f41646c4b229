package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/MacroPower/shipper/pkg/releasecmd"
	"github.com/MacroPower/shipper/pkg/releasetui"
)

const (
	releaseDesc = `This command drives release pipelines
`
	releaseExample = `  shipper release <command> [arguments]...
  # Run every stage of the pipeline at the current root
  shipper release run

  # Run a subset of stages, in declared order
  shipper release run changelog build-python

  # Print the resolved stage plan without invoking anything
  shipper release run --dry-run

  # Check that every stage command is executable
  shipper release verify

  # List the declared stage sequence
  shipper release list
`
)

var ErrInvalidArgument = errors.New("invalid argument")

// NewReleaseCmd returns the release command.
func NewReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "release",
		Short:        "Release pipeline management",
		Long:         releaseDesc,
		Example:      releaseExample,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringP("path", "p", ".", "Project root directory")
	if err := cmd.MarkPersistentFlagDirname("path"); err != nil {
		panic(err)
	}

	cmd.PersistentFlags().String("script", "", "Resolve the project root from this driver script path instead of --path")
	cmd.PersistentFlags().String("config", "", "Pipeline config file (defaults to release.yaml at the root)")
	cmd.PersistentFlags().Duration("timeout", 15*time.Minute, "Timeout for each stage")
	cmd.PersistentFlags().Duration("total-timeout", 0, "Timeout for the whole run (0 means unbounded)")
	cmd.PersistentFlags().Bool("git-root", false, "Resolve the project root from the enclosing git repository")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Run in quiet mode")

	cmd.AddCommand(NewReleaseRunCmd())
	cmd.AddCommand(NewReleaseVerifyCmd())
	cmd.AddCommand(NewReleaseListCmd())

	return cmd
}

type releaseArgs struct {
	path            string
	script          string
	config          string
	logDir          string
	logLevel        string
	timeout         time.Duration
	totalTimeout    time.Duration
	continueOnError bool
	dryRun          bool
	gitRoot         bool
	quiet           bool
}

func getReleaseArgs(cc *cobra.Command) (releaseArgs, error) {
	var (
		args releaseArgs
		merr error
		err  error
	)

	flags := cc.Flags()

	args.path, err = flags.GetString("path")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	args.script, err = flags.GetString("script")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	args.config, err = flags.GetString("config")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	args.timeout, err = flags.GetDuration("timeout")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	args.totalTimeout, err = flags.GetDuration("total-timeout")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	args.gitRoot, err = flags.GetBool("git-root")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	args.quiet, err = flags.GetBool("quiet")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	args.logLevel, err = flags.GetString("log_level")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	if f := flags.Lookup("log-dir"); f != nil {
		args.logDir = f.Value.String()
	}

	if f := flags.Lookup("continue-on-error"); f != nil {
		args.continueOnError, err = flags.GetBool("continue-on-error")
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}

	if f := flags.Lookup("dry-run"); f != nil {
		args.dryRun, err = flags.GetBool("dry-run")
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}

	if merr != nil {
		return args, fmt.Errorf("%w: %w", ErrInvalidArgument, merr)
	}

	return args, nil
}

func newPipeline(args releaseArgs, out io.Writer) (*releasecmd.Pipeline, error) {
	opts := []releasecmd.PipelineOpts{
		releasecmd.WithStageTimeout(args.timeout),
		releasecmd.WithTotalTimeout(args.totalTimeout),
		releasecmd.WithDryRun(args.dryRun),
		releasecmd.WithLogDir(args.logDir),
		releasecmd.WithOutput(out),
	}

	if args.config != "" {
		cfg, err := releasecmd.LoadConfig(args.config)
		if err != nil {
			return nil, err
		}

		opts = append(opts, releasecmd.WithConfig(cfg))
	}

	var (
		p   *releasecmd.Pipeline
		err error
	)

	switch {
	case args.script != "":
		p, err = releasecmd.NewPipelineFromScript(args.script, opts...)
	case args.gitRoot:
		p, err = releasecmd.NewPipelineFromRepo(args.path, opts...)
	default:
		p, err = releasecmd.NewPipeline(args.path, opts...)
	}

	if err != nil {
		return nil, err
	}

	if args.continueOnError {
		p.Config.ContinueOnError = true
	}

	return p, nil
}

// NewReleaseRunCmd returns the release run command.
func NewReleaseRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [stage]...",
		Short: "Run the release pipeline",
		RunE: func(cc *cobra.Command, stages []string) error {
			args, err := getReleaseArgs(cc)
			if err != nil {
				return err
			}

			p, err := newPipeline(args, cc.OutOrStdout())
			if err != nil {
				return err
			}

			if args.quiet || args.dryRun || !isatty.IsTerminal(os.Stdout.Fd()) {
				//nolint:wrapcheck // Stage errors carry exit codes and must not be re-wrapped.
				return p.Run(cc.Context(), stages...)
			}

			rt, err := releasetui.NewReleaseTUI(cc.OutOrStdout(), args.logLevel, p)
			if err != nil {
				return fmt.Errorf("failed to create tui: %w", err)
			}

			//nolint:wrapcheck // Stage errors carry exit codes and must not be re-wrapped.
			return rt.Run(cc.Context(), stages...)
		},
		SilenceUsage: true,
	}

	cmd.Flags().Bool("dry-run", false, "Print the resolved plan without invoking any stage")
	cmd.Flags().Bool("continue-on-error", false, "Run remaining stages after a failure, aggregating errors")
	cmd.Flags().String("log-dir", "", "Archive each stage's output to this directory as <stage>.log.gz")

	return cmd
}

// NewReleaseVerifyCmd returns the release verify command.
func NewReleaseVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [stage]...",
		Short: "Check that every stage command is executable",
		RunE: func(cc *cobra.Command, stages []string) error {
			args, err := getReleaseArgs(cc)
			if err != nil {
				return err
			}

			p, err := newPipeline(args, cc.OutOrStdout())
			if err != nil {
				return err
			}

			if args.quiet || !isatty.IsTerminal(os.Stdout.Fd()) {
				//nolint:wrapcheck // Verification errors are already wrapped per stage.
				return p.Verify(cc.Context(), stages...)
			}

			rt, err := releasetui.NewReleaseTUI(cc.OutOrStdout(), args.logLevel, p)
			if err != nil {
				return fmt.Errorf("failed to create tui: %w", err)
			}

			//nolint:wrapcheck // Verification errors are already wrapped per stage.
			return rt.Verify(cc.Context(), stages...)
		},
		SilenceUsage: true,
	}
}

// NewReleaseListCmd returns the release list command.
func NewReleaseListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the declared stage sequence",
		RunE: func(cc *cobra.Command, _ []string) error {
			args, err := getReleaseArgs(cc)
			if err != nil {
				return err
			}

			p, err := newPipeline(args, cc.OutOrStdout())
			if err != nil {
				return err
			}

			for _, s := range p.Stages() {
				cc.Println(fmt.Sprintf("%s\t%s", s.Name, strings.Join(s.Command, " ")))
			}

			return nil
		},
		SilenceUsage: true,
	}
}
