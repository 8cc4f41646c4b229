package cli_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacroPower/shipper/internal/cli"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	tc := cli.NewRootCmd("test_shipper", "", "")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	tc.SetArgs(args)
	tc.SetOut(stdout)
	tc.SetErr(stderr)

	err := tc.Execute()

	return stdout.String(), stderr.String(), err
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := execute(t, "version")
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, cli.GetVersionString())
}

func TestInvalidLogLevel(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "version", "--log_level", "shouting")
	require.ErrorIs(t, err, cli.ErrLogHandlerFailed)
}

func TestInvalidLogFormat(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "version", "--log_format", "xml")
	require.ErrorIs(t, err, cli.ErrLogHandlerFailed)
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "nonesuch")
	require.Error(t, err)
}
