package errors

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// Pipeline stage categories.
	CategoryContent ErrorCategory = "content"
	CategoryAsset   ErrorCategory = "asset"
	CategoryMarkup  ErrorCategory = "markup"
	CategoryCompose ErrorCategory = "compose"
	CategoryRender  ErrorCategory = "render"
	CategoryBuild   ErrorCategory = "build"

	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryGit        ErrorCategory = "git"
	CategoryCanceled   ErrorCategory = "canceled"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution completely
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ErrorContext holds key/value pairs attached to a ClassifiedError.
type ErrorContext map[string]any

// Set adds or replaces a value, allocating the map on first use.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}
