package data

import (
	"context"
	"sync"
)

// Future is a context that becomes available later, e.g. once a create
// request returns.
type Future struct {
	done chan struct{}
	once sync.Once
	ctx  Context
	err  error
}

// NewFuture creates an unresolved Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a Future that already holds c.
func Resolved(c Context) *Future {
	f := NewFuture()
	f.Resolve(c)
	return f
}

// Resolve completes the future with c. Only the first completion counts.
func (f *Future) Resolve(c Context) {
	f.once.Do(func() {
		f.ctx = c
		close(f.done)
	})
}

// Reject completes the future with err. Only the first completion counts.
func (f *Future) Reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future is completed.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future completes or ctx is done.
func (f *Future) Await(ctx context.Context) (Context, error) {
	select {
	case <-f.done:
		return f.ctx, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
