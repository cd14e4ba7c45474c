package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/prev/internal/logfields"
)

// CLIErrorAdapter turns command errors into terminal output and exit codes.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates an adapter. A nil logger uses slog.Default().
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor maps err to a process exit code. Unclassified errors exit 1.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if c, ok := AsClassified(err); ok {
		return presentationOf(c.Category()).exit
	}
	return 1
}

// FormatError renders err for the terminal. Internal errors only show their
// cause in verbose mode; verbose mode also appends the error context.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	c, ok := AsClassified(err)
	if !ok {
		return "Error: " + err.Error()
	}
	if c.Category() == CategoryInternal && !a.verbose {
		return "Internal error occurred (use -v for details)"
	}
	msg := "Error: " + c.Error()
	if a.verbose && len(c.Context()) > 0 {
		parts := make([]string, 0, len(c.Context()))
		for _, attr := range c.Context().Attrs() {
			parts = append(parts, attr.String())
		}
		msg += " (" + strings.Join(parts, " ") + ")"
	}
	return msg
}

// Handle prints err to w, logs its details at debug level, and returns the exit code.
func (a *CLIErrorAdapter) Handle(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	_, _ = fmt.Fprintln(w, a.FormatError(err))
	if c, ok := AsClassified(err); ok {
		a.logger.LogAttrs(context.Background(), slog.LevelDebug, "Command failed",
			append(c.LogAttrs(), slog.String("severity", string(c.Severity())))...)
	} else {
		a.logger.Debug("Command failed", logfields.Error(err))
	}
	return a.ExitCodeFor(err)
}
