// Package errors provides a lightweight structured error type (RelkitError)
// for category-based classification and exit-code mapping in the CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a relkit error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External system integration errors
	CategoryNetwork ErrorCategory = "network"
	CategoryGit     ErrorCategory = "git"
	CategoryStorage ErrorCategory = "storage"

	// Build and packaging errors
	CategoryBuild      ErrorCategory = "build"
	CategoryToolchain  ErrorCategory = "toolchain"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryPatch      ErrorCategory = "patch"

	// Serve loop and programming errors
	CategoryServer   ErrorCategory = "server"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// RelkitError is a structured error with category, retryability, and context
type RelkitError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for RelkitError
type ContextFields map[string]any

// Error implements the error interface
func (e *RelkitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *RelkitError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *RelkitError) WithContext(key string, value any) *RelkitError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new RelkitError
func New(category ErrorCategory, severity ErrorSeverity, message string) *RelkitError {
	return &RelkitError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new RelkitError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *RelkitError {
	return &RelkitError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapRetryable creates a new retryable RelkitError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *RelkitError {
	return &RelkitError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// As returns the outermost RelkitError in err's chain.
func As(err error) (*RelkitError, bool) {
	var re *RelkitError
	if stderrors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if re, ok := As(err); ok {
		return re.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if re, ok := As(err); ok {
		return re.Retryable
	}
	return false
}
