package bus

import (
	"context"
	"fmt"
)

// MaxSessionIDLength is the longest session id accepted, in bytes.
const MaxSessionIDLength = 128

// Session is a receiver bound to one session of an entity. Each session
// lives in its own queue, named by SessionEntityPath.
type Session struct {
	endpoint
	receive ReceiveConfig
}

// SessionEntityPath returns the queue holding sessionID's messages.
func SessionEntityPath(entityPath, sessionID string) string {
	return entityPath + "/sessions/" + sessionID
}

func validateSessionID(id string) error {
	if id == "" {
		return missingArgument("sessionId")
	}
	if len(id) > MaxSessionIDLength {
		return &ArgumentError{Name: "sessionId", Reason: fmt.Sprintf("longer than %d bytes", MaxSessionIDLength)}
	}
	return nil
}

func newSession(addr resolvedAddress, rc ReceiveConfig, cfg factoryConfig) (*Session, error) {
	if err := validateSessionID(rc.SessionID); err != nil {
		return nil, err
	}
	return &Session{
		endpoint: endpoint{kind: KindSession, addr: addr, factCfg: cfg},
		receive:  rc,
	}, nil
}

// SessionID returns the session the endpoint is bound to
func (s *Session) SessionID() string {
	return s.receive.SessionID
}

// ReceiveMode returns the mode the session settles messages in
func (s *Session) ReceiveMode() ReceiveMode {
	return s.receive.Mode
}

// PrefetchCount returns how many unsettled messages the session may hold
func (s *Session) PrefetchCount() int {
	return s.receive.PrefetchCount
}

func (s *Session) openLink(ctx context.Context, f *MessagingFactory) (link, error) {
	return f.openReceiver(ctx, SessionEntityPath(s.addr.entityPath, s.receive.SessionID), s.receive)
}
