// Package log builds [log/slog] handlers for the shipper CLI.
//
// Handlers are backed by [github.com/charmbracelet/log], which renders text,
// logfmt, and JSON output and implements [slog.Handler] directly.
package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

const (
	FormatText   = "text"
	FormatLogfmt = "logfmt"
	FormatJSON   = "json"
)

var (
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
)

// CreateHandler creates a [slog.Handler] writing to w with the given level
// and format.
func CreateHandler(w io.Writer, level slog.Level, format string) (slog.Handler, error) {
	f, err := parseFormat(format)
	if err != nil {
		return nil, err
	}

	logger := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Formatter:       f,
	})
	logger.SetLevel(charmlog.Level(level))

	return logger, nil
}

// CreateHandlerWithStrings creates a [slog.Handler] writing to w, parsing
// both the level and format from strings. It accepts the level names that
// cobra flags pass through verbatim.
func CreateHandlerWithStrings(w io.Writer, logLevel, logFormat string) (slog.Handler, error) {
	level, err := ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}

	return CreateHandler(w, level, logFormat)
}

// ParseLevel converts a level name into a [slog.Level].
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "fatal":
		return slog.LevelError, nil
	}

	return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, level)
}

func parseFormat(format string) (charmlog.Formatter, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return charmlog.TextFormatter, nil
	case FormatLogfmt:
		return charmlog.LogfmtFormatter, nil
	case FormatJSON:
		return charmlog.JSONFormatter, nil
	}

	return charmlog.TextFormatter, fmt.Errorf("%w: %q", ErrInvalidLogFormat, format)
}
