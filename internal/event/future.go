package event

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/adminkit/internal/errors"
)

// Awaitable is implemented by listener results that complete later.
// EmitAsync waits for them before invoking the next listener.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// Future is a value computed on another goroutine.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

// Go runs fn on a new goroutine and returns a Future for its result.
// A panic in fn resolves the future with an error.
func Go(fn func() (any, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("%w: %v", errors.ErrListenerPanic, r)
			}
		}()
		f.value, f.err = fn()
	}()
	return f
}

// Resolved returns a Future that is already complete.
func Resolved(v any, err error) *Future {
	f := &Future{done: make(chan struct{}), value: v, err: err}
	close(f.done)
	return f
}

// Await blocks until the future completes or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel that is closed when the future completes.
func (f *Future) Done() <-chan struct{} { return f.done }
