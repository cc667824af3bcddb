// Package errors provides a lightweight structured error type (ForgeError)
// for category-based classification and retry semantics in the build
// pipeline, publisher, and CLI.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a debforge error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"

	// External tool invocation errors
	CategoryChroot ErrorCategory = "chroot"
	CategorySource ErrorCategory = "source"
	CategoryBuild  ErrorCategory = "build"

	// Artifact handling and publishing errors
	CategoryArtifact ErrorCategory = "artifact"
	CategoryPublish  ErrorCategory = "publish"
	CategoryNetwork  ErrorCategory = "network"

	// Runtime and infrastructure errors
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// ForgeError is a structured error with category, retryability, and context
type ForgeError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for ForgeError
type ContextFields map[string]any

// Error implements the error interface
func (e *ForgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *ForgeError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ForgeError) WithContext(key string, value any) *ForgeError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new ForgeError
func New(category ErrorCategory, severity ErrorSeverity, message string) *ForgeError {
	return &ForgeError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new ForgeError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *ForgeError {
	return &ForgeError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// WrapRetryable creates a new retryable ForgeError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *ForgeError {
	return &ForgeError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	var fe *ForgeError
	if errors.As(err, &fe) {
		return fe.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable. Errors that are not
// ForgeErrors are treated as permanent.
func IsRetryable(err error) bool {
	var fe *ForgeError
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a ForgeError
func GetCategory(err error) ErrorCategory {
	var fe *ForgeError
	if errors.As(err, &fe) {
		return fe.Category
	}
	return CategoryInternal
}
