package retry

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Future is the eventual result of a wrapped call
type Future[T any] struct {
	done   chan struct{}
	result T
	err    error
}

// Go runs fn on its own goroutine and returns its Future
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		var (
			result T
			err    error
		)
		defer func() {
			if v := recover(); v != nil {
				err = &PanicError{Value: v, Stack: debug.Stack()}
			}
			f.resolve(result, err)
		}()
		result, err = fn(ctx)
	}()
	return f
}

// Resolved returns a Future that has already settled
func Resolved[T any](result T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.resolve(result, err)
	return f
}

func (f *Future[T]) resolve(result T, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Done is closed once the result is available
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the call settles
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.result, f.err
}

// Wait blocks until the call settles or ctx ends. Returning early abandons
// interest in the result; the underlying call keeps running.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// await is the attempt body for functions that return a Future
func await[T any](ctx context.Context, f *Future[T]) (T, error) {
	if f == nil {
		var zero T
		return zero, fmt.Errorf("retry: async function returned a nil future")
	}
	return f.Wait(ctx)
}
