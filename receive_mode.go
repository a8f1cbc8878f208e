package bus

import (
	"fmt"
	"strings"
)

// ReceiveMode selects how a receiver settles messages.
type ReceiveMode int

const (
	// PeekLock locks a message until the receiver settles it. It is the default.
	PeekLock ReceiveMode = iota
	// ReceiveAndDelete removes a message from the entity as soon as it is delivered.
	ReceiveAndDelete
)

func (m ReceiveMode) String() string {
	switch m {
	case PeekLock:
		return "PeekLock"
	case ReceiveAndDelete:
		return "ReceiveAndDelete"
	default:
		return fmt.Sprintf("ReceiveMode(%d)", int(m))
	}
}

func (m ReceiveMode) valid() bool {
	return m == PeekLock || m == ReceiveAndDelete
}

// ParseReceiveMode parses "peeklock" or "receiveanddelete", ignoring case.
func ParseReceiveMode(s string) (ReceiveMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "peeklock", "peek-lock":
		return PeekLock, nil
	case "receiveanddelete", "receive-and-delete":
		return ReceiveAndDelete, nil
	}
	return 0, &ArgumentError{Name: "receiveMode", Reason: fmt.Sprintf("unknown receive mode %q", s)}
}

// DefaultPrefetchCount is the number of unsettled messages a receiver may hold.
const DefaultPrefetchCount = 10

// ReceiveConfig is the receiver side configuration of Receiver and Session
// endpoints. Senders ignore it.
type ReceiveConfig struct {
	Mode          ReceiveMode
	SessionID     string
	PrefetchCount int
}
