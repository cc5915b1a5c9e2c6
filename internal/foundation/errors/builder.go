package errors

import "log/slog"

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category. Network errors are
// retryable unless the caller says otherwise.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category:  category,
		message:   message,
		retryable: category == CategoryNetwork,
	}}
}

// WrapError starts an error of the given category caused by err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

// WithContext adds a key-value pair that is logged with the error.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = append(b.err.context, slog.Any(key, value))
	return b
}

// Retryable marks the error as worth retrying regardless of its category.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	b.err.retryable = true
	return b
}

// Permanent marks the error as not worth retrying.
func (b *ErrorBuilder) Permanent() *ErrorBuilder {
	b.err.retryable = false
	return b
}

func (b *ErrorBuilder) Build() *ClassifiedError {
	built := b.err
	built.context = append([]slog.Attr(nil), b.err.context...)
	return &built
}

// ConfigError reports a playbook or content problem the user has to fix.
func ConfigError(message string) *ErrorBuilder { return NewError(CategoryConfig, message) }

func ValidationError(message string) *ErrorBuilder { return NewError(CategoryValidation, message) }

func AuthError(message string) *ErrorBuilder { return NewError(CategoryAuth, message) }

// NotFoundError reports a missing repository or path.
func NotFoundError(message string) *ErrorBuilder { return NewError(CategoryNotFound, message) }

func NetworkError(message string) *ErrorBuilder { return NewError(CategoryNetwork, message) }

// GitError reports a local repository that cannot be read.
func GitError(message string) *ErrorBuilder { return NewError(CategoryGit, message) }

func FileSystemError(message string) *ErrorBuilder { return NewError(CategoryFileSystem, message) }

func InternalError(message string) *ErrorBuilder { return NewError(CategoryInternal, message) }
