package log_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacroPower/shipper/pkg/log"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		want  slog.Level
		err   error
	}{
		"debug":         {input: "debug", want: slog.LevelDebug},
		"info":          {input: "info", want: slog.LevelInfo},
		"empty is info": {input: "", want: slog.LevelInfo},
		"warn":          {input: "warn", want: slog.LevelWarn},
		"warning":       {input: "WARNING", want: slog.LevelWarn},
		"error":         {input: "error", want: slog.LevelError},
		"invalid":       {input: "loud", err: log.ErrInvalidLogLevel},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := log.ParseLevel(tc.input)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCreateHandlerWithStrings(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	h, err := log.CreateHandlerWithStrings(out, "info", log.FormatLogfmt)
	require.NoError(t, err)

	logger := slog.New(h)
	logger.Info("stage complete", "stage", "changelog")
	logger.Debug("not visible")

	assert.Contains(t, out.String(), "stage complete")
	assert.Contains(t, out.String(), "stage=changelog")
	assert.NotContains(t, out.String(), "not visible")
}

func TestCreateHandlerWithStringsInvalidFormat(t *testing.T) {
	t.Parallel()

	_, err := log.CreateHandlerWithStrings(&bytes.Buffer{}, "info", "xml")
	require.ErrorIs(t, err, log.ErrInvalidLogFormat)
}
