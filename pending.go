package bus

import (
	"context"
	"sync"
)

// Pending is the result of a non-blocking create call. It settles exactly
// once, with a Ready endpoint or with an error.
type Pending[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newPending[T any]() *Pending[T] {
	return &Pending[T]{done: make(chan struct{})}
}

func (p *Pending[T]) settle(value T, err error) {
	p.once.Do(func() {
		p.value = value
		p.err = err
		close(p.done)
	})
}

// Done is closed once the result has settled.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Result returns the settled result without blocking. Before settlement it
// returns ErrNotSettled.
func (p *Pending[T]) Result() (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	default:
		var zero T
		return zero, ErrNotSettled
	}
}

// Wait blocks until the result settles or ctx ends. When ctx ends first it
// returns an *InterruptionError; initialization keeps running and Wait may
// be called again.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	default:
	}

	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		// Prefer a result that raced with cancellation.
		select {
		case <-p.done:
			return p.value, p.err
		default:
		}
		var zero T
		return zero, &InterruptionError{Err: ctx.Err()}
	}
}

// await is the blocking form of every create call. Nobody else can reach p,
// so when the wait is interrupted the endpoint is closed as soon as its
// initialization succeeds.
func await[T Endpoint](ctx context.Context, p *Pending[T]) (T, error) {
	v, err := p.Wait(ctx)
	if _, interrupted := err.(*InterruptionError); interrupted {
		go func() {
			<-p.done
			if p.err == nil {
				p.value.Close()
			}
		}()
	}
	return v, err
}
