// Package retry wraps functions so that failed calls are re-invoked with
// exponential backoff.
//
// # Overview
//
// A Retrier holds an immutable Config. Wrapping a function with it returns a
// function of the same argument shape whose calls return a Future. Each call
// runs an attempt loop: on success the result is returned, on failure the
// loop either waits and retries or surfaces the failure unchanged.
//
// # Core Functions
//
//   - New / NewFrom: build a Retrier (defaults: 3 retries, 300ms timeout, factor 2)
//   - Wrap / WrapMethod / WrapAsync: wrap a function, method expression or async function
//   - Execute: run one bound Invocation and block until it settles
//   - Do / DoWithResult / (*Retrier).Do: blocking helpers
//
// # Backoff
//
// The delay before retry k (1-indexed) is Timeout * Factor^(k-1), so with a
// 5ms timeout and factor 1.5 the waits are 5ms, 7.5ms, 11.25ms. InitialDelay
// pauses once before the first attempt. MaxDelay and Jitter are off by
// default; WithBackOff accepts any backoff.BackOff from cenkalti/backoff.
//
// # Usage Examples
//
// Wrap a function once, call it many times:
//
//	r, err := retry.New(retry.WithRetries(2), retry.WithTimeout(5*time.Millisecond))
//	if err != nil {
//	    return err
//	}
//	fetch, err := retry.Wrap(r, fetchUser)
//	if err != nil {
//	    return err
//	}
//	user, err := fetch(ctx, "u-42").Wait(ctx)
//
// Override defaults for one function:
//
//	send, err := retry.Wrap(r, sendMail,
//	    retry.WithRetries(5),
//	    retry.WithErrors(ErrMailboxBusy),
//	)
//
// Retry a method with its receiver:
//
//	get, err := retry.WrapMethod(r, (*Client).Get)
//	body, err := get(client, ctx, "/status").Get()
//
// # Retry Predicates
//
// The executor only consults Config.ShouldRetry. OnErrors, OnType and
// OnClasses build predicates from error categories; Not, Any and All combine
// them. A failure rejected by the predicate is never retried, whatever budget
// remains.
//
// # Failures
//
// Terminal failures are returned exactly as the function produced them, with
// no wrapping. A panic inside the function is recovered and treated as a
// *PanicError failure. Configuration mistakes surface from New, NewFrom, With
// and the Wrap functions as errors matching errors.ErrInvalidConfig.
//
// # Context Cancellation
//
// ctx is handed to the function on every attempt; the executor never
// interrupts a running attempt. If ctx ends during the initial delay or a
// backoff wait the loop stops with a *CancelledError. Future.Wait(ctx) only
// abandons interest in the result.
//
// # Thread Safety
//
// A Retrier and the functions it returns are safe for concurrent use. Each
// call keeps its own attempt count and backoff state. Log observers and
// predicates may be called from several goroutines at once.
package retry
