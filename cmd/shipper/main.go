package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MacroPower/shipper/internal/cli"
	"github.com/MacroPower/shipper/pkg/releasecmd"
)

const (
	cmdName = "shipper"

	shortDesc = "The Shipper Command Line Interface (CLI)."
	longDesc  = `The Shipper Command Line Interface (CLI).

Shipper drives release pipelines. It resolves a project root and the project's
own reported version, then runs an ordered list of named release stages, each
an external executable invoked with the release context in its environment.
`
)

func main() {
	cmd := cli.NewRootCmd(cmdName, shortDesc, longDesc)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimLeft(err.Error(), "\n"))

		// A failed stage's exit code becomes the driver's exit code.
		var stageErr *releasecmd.StageError
		if errors.As(err, &stageErr) && stageErr.ExitCode > 0 {
			os.Exit(stageErr.ExitCode)
		}

		os.Exit(1)
	}
}
