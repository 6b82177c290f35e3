package retry

import (
	"context"
	"fmt"

	errs "github.com/c360/retrywrap/errors"
)

// Wrap returns a function with fn's argument shape that runs fn under r's
// policy with overrides applied. Every call gets its own attempt state and
// returns a Future, even when fn completes synchronously. A nil r uses
// DefaultConfig.
//
// The ctx given to a call drives the retry loop itself: cancelling it ends a
// pending backoff wait with a *CancelledError and no further attempts run.
// To abandon only the result while retries continue, pass a context that
// outlives the caller and use Future.Wait with the caller's ctx instead.
func Wrap[A, T any](r *Retrier, fn func(ctx context.Context, args A) (T, error), overrides ...Option) (func(ctx context.Context, args A) *Future[T], error) {
	if fn == nil {
		return nil, configError("Wrap", fmt.Errorf("%w: nil function", errs.ErrInvalidConfig))
	}
	cfg, err := r.resolve("Wrap", overrides)
	if err != nil {
		return nil, err
	}

	name := funcName(fn)
	call := func(ctx context.Context, _ struct{}, args A) (T, error) {
		return fn(ctx, args)
	}

	return func(ctx context.Context, args A) *Future[T] {
		inv := Invocation[struct{}, A, T]{Fn: call, Args: args, Name: name}
		return Go(ctx, func(ctx context.Context) (T, error) {
			return Execute(ctx, cfg, inv)
		})
	}, nil
}

// WrapMethod is Wrap for functions that depend on a receiver, such as method
// expressions like (*Client).Fetch. The receiver given at call time is passed
// unchanged to every attempt.
func WrapMethod[R, A, T any](r *Retrier, m func(recv R, ctx context.Context, args A) (T, error), overrides ...Option) (func(recv R, ctx context.Context, args A) *Future[T], error) {
	if m == nil {
		return nil, configError("WrapMethod", fmt.Errorf("%w: nil method", errs.ErrInvalidConfig))
	}
	cfg, err := r.resolve("WrapMethod", overrides)
	if err != nil {
		return nil, err
	}

	name := funcName(m)
	call := func(ctx context.Context, recv R, args A) (T, error) {
		return m(recv, ctx, args)
	}

	return func(recv R, ctx context.Context, args A) *Future[T] {
		inv := Invocation[R, A, T]{Fn: call, Receiver: recv, Args: args, Name: name}
		return Go(ctx, func(ctx context.Context) (T, error) {
			return Execute(ctx, cfg, inv)
		})
	}, nil
}

// WrapAsync is Wrap for functions that already return a Future. Each attempt
// waits for the returned Future before deciding whether to retry.
func WrapAsync[A, T any](r *Retrier, fn func(ctx context.Context, args A) *Future[T], overrides ...Option) (func(ctx context.Context, args A) *Future[T], error) {
	if fn == nil {
		return nil, configError("WrapAsync", fmt.Errorf("%w: nil function", errs.ErrInvalidConfig))
	}
	cfg, err := r.resolve("WrapAsync", overrides)
	if err != nil {
		return nil, err
	}

	name := funcName(fn)
	call := func(ctx context.Context, _ struct{}, args A) (T, error) {
		return await(ctx, fn(ctx, args))
	}

	return func(ctx context.Context, args A) *Future[T] {
		inv := Invocation[struct{}, A, T]{Fn: call, Args: args, Name: name}
		return Go(ctx, func(ctx context.Context) (T, error) {
			return Execute(ctx, cfg, inv)
		})
	}, nil
}
