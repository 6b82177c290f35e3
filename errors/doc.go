// Package errors provides standardized error handling patterns for retrywrap.
//
// # Overview
//
// The errors package implements a three-class error classification system: Transient
// (temporary, retryable), Invalid (bad input or configuration, non-retryable), and
// Fatal (unrecoverable, stop processing).
//
// The retry package consumes this classification through its OnClasses predicate
// adapter, so a caller can say "retry transient failures only" without writing
// a predicate by hand:
//
//	r, err := retry.New(
//	    retry.WithRetries(5),
//	    retry.WithShouldRetry(retry.OnClasses(errors.ErrorTransient)),
//	)
//
// # Error Classification
//
// Errors are classified based on their type or content:
//
//   - Transient: timeouts, unavailability, rate limiting, context deadlines
//   - Invalid: invalid configuration, unknown policies
//   - Fatal: missing commands, non-executable commands, cancelled contexts
//
// A ClassifiedError anywhere in the chain takes precedence over sentinel and
// message-pattern checks. Unknown errors default to Transient.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")
//	errors.WrapInvalid(err, "Component", "Method", "action")
//	errors.WrapFatal(err, "Component", "Method", "action")
//
// The generic Wrap() function preserves the original error's classification.
//
// # Integration with errors.As/Is
//
//	var ce *errors.ClassifiedError
//	if errors.As(err, &ce) {
//	    slog.Warn("classified failure", "component", ce.Component, "class", ce.Class)
//	}
//
//	if errors.Is(err, errors.ErrInvalidConfig) {
//	    // construction-time misuse, never retried
//	}
//
// # Thread Safety
//
// All classification and wrapping operations are thread-safe. Error variables
// are immutable and safe for concurrent access.
package errors
