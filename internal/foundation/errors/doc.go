// Package errors provides the classified error used across the content
// aggregator.
//
// Every failure surfaced to the CLI is, or wraps, a ClassifiedError. Its
// ErrorCategory picks the exit code, Error() returns the user facing message
// and the cause stays reachable through errors.Unwrap and errors.As. Context
// added with WithContext only shows up in logs:
//
//	err := errors.WrapError(cause, errors.CategoryAuth, "Content repository not found or requires credentials").
//		WithContext("url", displayURL).
//		Build()
package errors
