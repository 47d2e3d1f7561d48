package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// ClassifiedError is an error tagged with a category and a severity. Its
// context pairs are logged by the CLI adapter.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  ErrorContext
}

func (e *ClassifiedError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.category, e.message)
	}
	return fmt.Sprintf("%s: %s: %v", e.category, e.message, e.cause)
}

func (e *ClassifiedError) Unwrap() error { return e.cause }
func (e *ClassifiedError) Category() ErrorCategory { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }
func (e *ClassifiedError) Message() string { return e.message }
func (e *ClassifiedError) Context() ErrorContext { return e.context }

// Detail is the message followed by the cause, without the category prefix.
func (e *ClassifiedError) Detail() string {
	if e.cause == nil {
		return e.message
	}
	return e.message + ": " + e.cause.Error()
}

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category with SeverityError.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{category: category, severity: SeverityError, message: message}}
}

// WrapError starts an error that wraps cause.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(cause)
}

// ConfigError is a fatal configuration problem.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError is a fatal problem with command-line input.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

// FileSystemError is a failed read or write outside the staged output.
func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

// GitError is a failed repository inspection. Builds continue without provenance.
func GitError(message string) *ErrorBuilder {
	return NewError(CategoryGit, message).Warning()
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.err.severity = SeverityFatal
	return b
}

func (b *ErrorBuilder) Warning() *ErrorBuilder {
	b.err.severity = SeverityWarning
	return b
}

// Build returns the error. The builder must not be reused.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	return &e
}

// categorized is implemented by domain error types that know their category.
type categorized interface {
	Category() ErrorCategory
}

// AsClassified finds the first ClassifiedError in the chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	ok := stderrors.As(err, &classified)
	return classified, ok
}

// GetCategory returns the category of the first categorized error in the chain,
// or CategoryInternal. Cancellation is CategoryCanceled however it is wrapped.
func GetCategory(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return CategoryCanceled
	}
	var c categorized
	if stderrors.As(err, &c) {
		return c.Category()
	}
	return CategoryInternal
}

// GetSeverity returns the severity of the first ClassifiedError, or SeverityError.
func GetSeverity(err error) ErrorSeverity {
	if classified, ok := AsClassified(err); ok {
		return classified.severity
	}
	return SeverityError
}
