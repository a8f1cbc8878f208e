package bus

import (
	"fmt"
	"sync/atomic"
)

// Kind names an endpoint kind.
type Kind int

const (
	KindSender Kind = iota + 1
	KindReceiver
	KindSession
)

func (k Kind) String() string {
	switch k {
	case KindSender:
		return "sender"
	case KindReceiver:
		return "receiver"
	case KindSession:
		return "session"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// State is an endpoint's lifecycle position. Callers only ever hold
// endpoints in StateReady or, after Close, StateClosed.
type State int32

const (
	StateCreated State = iota
	StateInitializing
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// lifecycle holds a State that only moves forward through transition.
type lifecycle struct {
	state atomic.Int32
}

func (l *lifecycle) load() State {
	return State(l.state.Load())
}

func (l *lifecycle) transition(from, to State) bool {
	return l.state.CompareAndSwap(int32(from), int32(to))
}
