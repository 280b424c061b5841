// Package async provides asynchronous-looking types whose work is always
// already done. Futures are completed when created and enumerators advance
// on the caller's goroutine. An enumerator built with Pull holds a runtime
// coroutine until it is drained or closed, so Close it when done.
package async

import "context"

var closed = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Future is a completed result
type Future[T any] struct {
	value T
	err   error
}

// FromResult returns a future completed with v
func FromResult[T any](v T) *Future[T] { return &Future[T]{value: v} }

// FromError returns a future completed with err
func FromError[T any](err error) *Future[T] { return &Future[T]{err: err} }

// Completed returns a future completed with v and err
func Completed[T any](v T, err error) *Future[T] {
	if err != nil {
		var zero T
		return &Future[T]{value: zero, err: err}
	}
	return &Future[T]{value: v}
}

// Await returns the result. The context is accepted for interface
// compatibility and never consulted.
func (f *Future[T]) Await(context.Context) (T, error) { return f.value, f.err }

// Result returns the result without a context
func (f *Future[T]) Result() (T, error) { return f.value, f.err }

// Done returns a channel that is already closed
func (f *Future[T]) Done() <-chan struct{} { return closed }

// IsCompleted is always true
func (f *Future[T]) IsCompleted() bool { return true }

// Err returns the fault the future completed with, if any
func (f *Future[T]) Err() error { return f.err }
