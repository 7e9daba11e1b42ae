package actors

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Future represents the result of an asynchronous computation issued by an
// actor.
type Future[T any] interface {
	// Await blocks until the result is available or ctx is cancelled.
	Await(ctx context.Context) fn.Result[T]

	// ThenApply returns a new Future whose value is fn applied to this
	// Future's result once available.
	ThenApply(ctx context.Context, fn func(T) T) Future[T]

	// OnComplete registers a callback invoked when the result is ready,
	// or with ctx's error if ctx is cancelled first.
	OnComplete(ctx context.Context, fn func(fn.Result[T]))
}

// Promise lets the producer of an asynchronous result set its outcome
// exactly once.
type Promise[T any] interface {
	Future() Future[T]

	// Complete sets the result, returning true iff this call was first.
	Complete(result fn.Result[T]) bool
}

type promise[T any] struct {
	mu       sync.Mutex
	done     chan struct{}
	result   fn.Result[T]
	complete bool
}

// NewPromise creates an unresolved Promise/Future pair.
func NewPromise[T any]() Promise[T] {
	return &promise[T]{done: make(chan struct{})}
}

func (p *promise[T]) Future() Future[T] { return p }

func (p *promise[T]) Complete(result fn.Result[T]) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.complete {
		return false
	}

	p.result = result
	p.complete = true
	close(p.done)

	return true
}

func (p *promise[T]) Await(ctx context.Context) fn.Result[T] {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()

		return p.result

	case <-ctx.Done():
		return fn.Err[T](ctx.Err())
	}
}

func (p *promise[T]) ThenApply(ctx context.Context, mapFn func(T) T) Future[T] {
	next := NewPromise[T]()

	go func() {
		res := p.Await(ctx)
		res.WhenOk(func(v T) { next.Complete(fn.Ok(mapFn(v))) })
		res.WhenErr(func(err error) { next.Complete(fn.Err[T](err)) })
	}()

	return next.Future()
}

func (p *promise[T]) OnComplete(ctx context.Context, cb func(fn.Result[T])) {
	go func() {
		cb(p.Await(ctx))
	}()
}
