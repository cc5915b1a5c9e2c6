package errors

import (
	stderrors "errors"
	"log/slog"
	"strings"
)

// ClassifiedError is a failure with a category, a user facing message and
// structured context for logs.
type ClassifiedError struct {
	category  ErrorCategory
	message   string
	cause     error
	retryable bool
	context   []slog.Attr
}

// Error returns the message only. Use Detail for the cause chain.
func (e *ClassifiedError) Error() string { return e.message }

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }

func (e *ClassifiedError) Message() string { return e.message }

func (e *ClassifiedError) Cause() error { return e.cause }

// CanRetry reports whether repeating the failed operation may succeed.
func (e *ClassifiedError) CanRetry() bool { return e.retryable }

// Detail renders the message followed by every distinct message of the cause
// chain, one per line.
func (e *ClassifiedError) Detail() string {
	var b strings.Builder
	b.WriteString(e.message)
	last := e.message
	for cause := e.cause; cause != nil; cause = stderrors.Unwrap(cause) {
		msg := cause.Error()
		if msg == last || strings.HasSuffix(last, msg) {
			continue
		}
		b.WriteString("\nCaused by: ")
		b.WriteString(msg)
		last = msg
	}
	return b.String()
}

// LogValue groups category, message and context for structured logging.
func (e *ClassifiedError) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.context)+3)
	attrs = append(attrs, slog.String("category", string(e.category)), slog.String("message", e.message))
	if e.retryable {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	attrs = append(attrs, e.context...)
	return slog.GroupValue(attrs...)
}

// WithMessage returns a copy carrying message. The category, cause and
// context are kept, so a caller can say where an error was raised.
func (e *ClassifiedError) WithMessage(message string) *ClassifiedError {
	c := *e
	c.message = message
	return &c
}

// WithContext returns a copy with key added to the context.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	c := *e
	c.context = append(append([]slog.Attr(nil), e.context...), slog.Any(key, value))
	return &c
}

// Is matches other classified errors by category and message.
func (e *ClassifiedError) Is(target error) bool {
	if other, ok := target.(*ClassifiedError); ok {
		return e.category == other.category && e.message == other.message
	}
	return false
}

// AsClassified finds the first ClassifiedError in the chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

func IsClassified(err error) bool {
	_, ok := AsClassified(err)
	return ok
}

// HasCategory checks if the first classified error in the chain belongs to category.
func HasCategory(err error, category ErrorCategory) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal.
func GetCategory(err error) ErrorCategory {
	if classified, ok := AsClassified(err); ok {
		return classified.category
	}
	return CategoryInternal
}

// IsRetryable reports whether the first classified error in the chain may be retried.
func IsRetryable(err error) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.retryable
	}
	return false
}
