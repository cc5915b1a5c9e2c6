package errors

import (
	"fmt"
	"io"
	"log/slog"
)

// CLIErrorAdapter prints aggregation failures and maps them to exit codes.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates an adapter. In verbose mode the cause chain of a
// classified error is printed too.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor returns 0 for nil, the category's exit code for classified
// errors and 1 for anything else.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if classified, ok := AsClassified(err); ok {
		return classified.category.ExitCode()
	}
	return 1
}

func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	if classified, ok := AsClassified(err); ok && a.verbose && classified.cause != nil {
		return "Error: " + classified.Detail()
	}
	return fmt.Sprintf("Error: %v", err)
}

// Report logs err at debug level, prints it to w and returns the exit code.
func (a *CLIErrorAdapter) Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	a.logger.Debug("Aggregation failed", slog.Any("error", err))
	_, _ = fmt.Fprintln(w, a.FormatError(err))
	return a.ExitCodeFor(err)
}
