// Package errors provides the structured error type used across dirt, along
// with a collector for failures that are reported but do not stop a build.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeBuild      ErrorType = "build"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// DirtError is a structured error type with enough context to diagnose a failed
// step without re-running it.
type DirtError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Step        string
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *DirtError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Step != "" {
		parts = append(parts, "step:"+e.Step)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *DirtError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *DirtError) Is(target error) bool {
	var t *DirtError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *DirtError) WithContext(key string, value interface{}) *DirtError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile records the file the error relates to.
func (e *DirtError) WithFile(filePath string) *DirtError {
	e.FilePath = filePath

	return e
}

// WithStep records the pipeline step that failed.
func (e *DirtError) WithStep(step string) *DirtError {
	e.Step = step

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *DirtError {
	return &DirtError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewSecurityError creates a security error.
func NewSecurityError(code, message string) *DirtError {
	return &DirtError{
		Type:        ErrorTypeSecurity,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewBuildError creates a build error.
func NewBuildError(code, message string, cause error) *DirtError {
	return &DirtError{
		Type:        ErrorTypeBuild,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *DirtError {
	return &DirtError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string, cause error) *DirtError {
	return &DirtError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var de *DirtError
	if errors.As(err, &de) {
		return de.Recoverable
	}

	return false
}

// IsBuildError checks if an error is build-related.
func IsBuildError(err error) bool {
	var de *DirtError
	if errors.As(err, &de) {
		return de.Type == ErrorTypeBuild
	}

	return false
}

// Common error codes.
const (
	ErrCodeInvalidPath      = "ERR_INVALID_PATH"
	ErrCodeCommandInjection = "ERR_COMMAND_INJECTION"
	ErrCodeReadModule       = "ERR_READ_MODULE"
	ErrCodeScaffold         = "ERR_SCAFFOLD"
	ErrCodeManifest         = "ERR_MANIFEST"
	ErrCodeWriteModule      = "ERR_WRITE_MODULE"
	ErrCodeCopyAuxiliary    = "ERR_COPY_AUXILIARY"
	ErrCodeEntryFile        = "ERR_ENTRY_FILE"
	ErrCodeFormat           = "ERR_FORMAT"
	ErrCodeCompile          = "ERR_COMPILE"
	ErrCodeChdir            = "ERR_CHDIR"
	ErrCodeArtifact         = "ERR_ARTIFACT"
	ErrCodeSymlink          = "ERR_SYMLINK"
	ErrCodeCleanup          = "ERR_CLEANUP"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeConfigFallback   = "ERR_CONFIG_FALLBACK"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeTemplate         = "ERR_TEMPLATE"
)
