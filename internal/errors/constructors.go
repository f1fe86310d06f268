package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *RelkitError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *RelkitError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *RelkitError {
	return New(CategoryValidation, SeverityFatal, reason).
		WithContext("field", field)
}

// UnknownAction reports an export action that names no known target.
func UnknownAction(action string) *RelkitError {
	return New(CategoryValidation, SeverityError, "unknown action").
		WithContext("action", action)
}

// Packaging errors

func ExportFailed(target string, cause error) *RelkitError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "export failed").
		WithContext("target", target)
}

func GenerateFailed(target string, cause error) *RelkitError {
	return Wrap(cause, CategoryToolchain, SeverityFatal, "generate failed").
		WithContext("target", target)
}

func FileSystemError(operation string, cause error) *RelkitError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation)
}

// PatchFailed reports a version substitution that could not be applied to a file.
func PatchFailed(path string, cause error) *RelkitError {
	return Wrap(cause, CategoryPatch, SeverityFatal, "version patch failed").
		WithContext("path", path)
}

// Network and storage errors

func NetworkError(endpoint string, cause error) *RelkitError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "network error").
		WithContext("endpoint", endpoint)
}

func StorageError(operation string, cause error) *RelkitError {
	return Wrap(cause, CategoryStorage, SeverityError, "storage operation failed").
		WithContext("operation", operation)
}

func GitError(operation string, cause error) *RelkitError {
	return Wrap(cause, CategoryGit, SeverityFatal, "git operation failed").
		WithContext("operation", operation)
}

// ServerError reports a static file server that failed to bind or serve.
func ServerError(cause error) *RelkitError {
	return Wrap(cause, CategoryServer, SeverityFatal, "server failed")
}
