// Package shared holds setup code used by several pebbles subcommands.
package shared

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// SetupLogger builds the root logger. format is text, json or logfmt.
// noColor forces plain output for the logger and for lipgloss rendering.
func SetupLogger(w io.Writer, level, format string, noColor bool) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	var formatter log.Formatter
	switch strings.ToLower(format) {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	if noColor {
		logger.SetColorProfile(termenv.Ascii)
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return logger, nil
}

// SetupFileLogger logs to path so the TUI owns the terminal. The returned
// func closes the file.
func SetupFileLogger(path, level string, noColor bool) (*log.Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	// files never get colour codes
	logger, err := SetupLogger(f, level, "text", true)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return logger, func() { _ = f.Close() }, nil
}
