package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if re, ok := As(err); ok {
		return a.exitCodeFromRelkit(re)
	}

	return 1
}

// exitCodeFromRelkit maps RelkitError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromRelkit(err *RelkitError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryPatch:
		return 3 // Pattern not found while patching
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryNetwork, CategoryGit, CategoryStorage:
		return 8 // External system error
	case CategoryBuild, CategoryToolchain, CategoryFileSystem:
		return 11 // Build error
	case CategoryServer:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if re, ok := As(err); ok {
		return a.formatRelkit(re)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatRelkit formats a RelkitError for display.
func (a *CLIErrorAdapter) formatRelkit(err *RelkitError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return err.Message
	case CategoryPatch:
		if err.Cause != nil {
			return err.Cause.Error()
		}
		return err.Message
	default:
		if err.Cause != nil {
			return fmt.Sprintf("%s: %s: %v", err.Category, err.Message, err.Cause)
		}
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	_, _ = fmt.Fprintf(a.out, "%s\n", message)
	a.exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if re, ok := As(err); ok {
		return re.Category == CategoryInternal ||
			re.Category == CategoryServer ||
			re.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if re, ok := As(err); ok {
		level := slogLevelFromSeverity(re.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(re.Category)),
		}
		if re.Retryable {
			attrs = append(attrs, slog.Bool("retryable", true))
		}
		for k, v := range re.Context {
			attrs = append(attrs, slog.Any(k, v))
		}

		a.logger.LogAttrs(context.Background(), level, re.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts RelkitError severity to slog level.
func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
