package apiclient

import (
	"context"
	"fmt"
)

// Pending is the eventual result of a call running on its own goroutine.
type Pending[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go starts call and returns immediately. A panic inside call resolves the
// result with ErrRequestFailed instead of crashing the caller.
func Go[T any](ctx context.Context, call func(context.Context) (T, error)) *Pending[T] {
	pending := &Pending[T]{done: make(chan struct{})}
	go func() {
		defer close(pending.done)
		defer func() {
			if recovered := recover(); recovered != nil {
				pending.err = fmt.Errorf("%w: %v", ErrRequestFailed, recovered)
			}
		}()
		pending.value, pending.err = call(ctx)
	}()
	return pending
}

// Done is closed once the call has resolved.
func (pending *Pending[T]) Done() <-chan struct{} {
	return pending.done
}

// Wait blocks until the call resolves.
func (pending *Pending[T]) Wait() (T, error) {
	<-pending.done
	return pending.value, pending.err
}

// Then runs onSuccess or onFailure on a separate goroutine once the call resolves.
// Either callback may be nil.
func (pending *Pending[T]) Then(onSuccess func(T), onFailure func(error)) {
	go func() {
		value, err := pending.Wait()
		if err != nil {
			if onFailure != nil {
				onFailure(err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(value)
		}
	}()
}
