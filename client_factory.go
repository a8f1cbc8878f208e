package bus

import "context"

// CreateSender creates a sender and blocks until it is attached.
func CreateSender(ctx context.Context, addr Address, opts ...Option) (*Sender, error) {
	p, err := CreateSenderAsync(addr, opts...)
	if err != nil {
		return nil, err
	}
	return await(ctx, p)
}

// CreateSenderAsync starts creating a sender. Argument and connection
// string errors are returned immediately; everything else settles p.
func CreateSenderAsync(addr Address, opts ...Option) (*Pending[*Sender], error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	return createSenderAsync(addr, s.factory)
}

func createSenderAsync(addr Address, fc factoryConfig) (*Pending[*Sender], error) {
	if err := addr.validate(); err != nil {
		return nil, err
	}
	ra, err := addr.resolve()
	if err != nil {
		return nil, err
	}
	return initializeAsync(newSender(ra, fc))
}

// CreateReceiver creates a receiver and blocks until it is attached.
// The receive mode defaults to PeekLock.
func CreateReceiver(ctx context.Context, addr Address, opts ...Option) (*Receiver, error) {
	p, err := CreateReceiverAsync(addr, opts...)
	if err != nil {
		return nil, err
	}
	return await(ctx, p)
}

// CreateReceiverAsync starts creating a receiver. The receive mode defaults to PeekLock.
func CreateReceiverAsync(addr Address, opts ...Option) (*Pending[*Receiver], error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	return createReceiverAsync(addr, s.receive, s.factory)
}

func createReceiverAsync(addr Address, rc ReceiveConfig, fc factoryConfig) (*Pending[*Receiver], error) {
	if err := addr.validate(); err != nil {
		return nil, err
	}
	ra, err := addr.resolve()
	if err != nil {
		return nil, err
	}
	return initializeAsync(newReceiver(ra, rc, fc))
}

// AcceptSession creates a receiver bound to sessionID and blocks until it
// is attached. The receive mode defaults to PeekLock.
func AcceptSession(ctx context.Context, addr Address, sessionID string, opts ...Option) (*Session, error) {
	p, err := AcceptSessionAsync(addr, sessionID, opts...)
	if err != nil {
		return nil, err
	}
	return await(ctx, p)
}

// AcceptSessionAsync starts creating a receiver bound to sessionID.
func AcceptSessionAsync(addr Address, sessionID string, opts ...Option) (*Pending[*Session], error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	s.receive.SessionID = sessionID
	return acceptSessionAsync(addr, s.receive, s.factory)
}

func acceptSessionAsync(addr Address, rc ReceiveConfig, fc factoryConfig) (*Pending[*Session], error) {
	if err := addr.validate(); err != nil {
		return nil, err
	}
	if err := validateSessionID(rc.SessionID); err != nil {
		return nil, err
	}
	ra, err := addr.resolve()
	if err != nil {
		return nil, err
	}
	session, err := newSession(ra, rc, fc)
	if err != nil {
		return nil, err
	}
	return initializeAsync(session)
}
