package bus

import (
	"context"
	"errors"
)

// Endpoint is implemented by *Sender, *Receiver and *Session.
type Endpoint interface {
	Kind() Kind
	EntityPath() string
	State() State
	Close() error
}

// initializer is an endpoint the creation protocol can drive.
type initializer interface {
	Endpoint
	base() *endpoint
	openLink(ctx context.Context, f *MessagingFactory) (link, error)
}

// endpoint holds what every kind records at construction and acquires
// during initialization.
type endpoint struct {
	lifecycle
	kind    Kind
	addr    resolvedAddress
	factCfg factoryConfig

	// Set during initialization, read only after the Ready transition.
	factory     *MessagingFactory
	ownsFactory bool
	link        link
	linkID      string
}

func (e *endpoint) base() *endpoint {
	return e
}

// Kind returns the endpoint kind
func (e *endpoint) Kind() Kind {
	return e.kind
}

// EntityPath returns the entity the endpoint was addressed to
func (e *endpoint) EntityPath() string {
	return e.addr.entityPath
}

// State returns the lifecycle state
func (e *endpoint) State() State {
	return e.load()
}

// LinkID identifies the attached link in broker logs
func (e *endpoint) LinkID() string {
	switch e.State() {
	case StateReady, StateClosed:
		return e.linkID
	}
	return ""
}

// Close detaches the endpoint and, when it dialed its own connection,
// closes that too. Close is idempotent.
func (e *endpoint) Close() error {
	if !e.transition(StateReady, StateClosed) {
		return nil
	}
	return e.teardown()
}

// setup acquires the factory and opens the link. It runs once, on the
// initialization goroutine.
func (e *endpoint) setup(ctx context.Context, open func(context.Context, *MessagingFactory) (link, error)) error {
	if e.addr.factory != nil {
		e.factory = e.addr.factory
	} else {
		f, err := dialFactory(ctx, e.addr.builder, e.factCfg)
		if err != nil {
			return err
		}
		e.factory = f
		e.ownsFactory = true
	}

	l, err := open(ctx, e.factory)
	if err != nil {
		return err
	}
	e.link = l
	e.linkID = l.ID()
	return nil
}

// teardown releases whatever setup acquired.
func (e *endpoint) teardown() error {
	var errs []error
	if e.link != nil {
		errs = append(errs, e.link.Close())
		e.link = nil
	}
	if e.ownsFactory && e.factory != nil {
		errs = append(errs, e.factory.Close())
	}
	return errors.Join(errs...)
}

// initializeAsync starts e's one initialization attempt and returns the
// pending result bound to it. The pending result resolves with e itself once
// e is Ready, or with an *InitializationError after e's partial resources
// have been released.
func initializeAsync[T initializer](e T) (*Pending[T], error) {
	b := e.base()
	if !b.transition(StateCreated, StateInitializing) {
		return nil, ErrAlreadyInitialized
	}

	p := newPending[T]()
	go func() {
		if err := b.setup(context.Background(), e.openLink); err != nil {
			if terr := b.teardown(); terr != nil {
				b.factCfg.logger.Debug("releasing failed endpoint",
					"kind", b.kind,
					"entity", b.addr.entityPath,
					"error", terr)
			}
			b.transition(StateInitializing, StateFailed)
			var zero T
			p.settle(zero, &InitializationError{Kind: b.kind, EntityPath: b.addr.entityPath, Err: err})
			return
		}
		b.transition(StateInitializing, StateReady)
		p.settle(e, nil)
	}()
	return p, nil
}
