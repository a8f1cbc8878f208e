package rabbitmq

import (
	"log/slog"
	"sync"
)

// Link is an attached sender or receiver channel bound to one entity
type Link struct {
	id      string
	role    string
	entity  string
	autoAck bool
	ch      *PooledChannel
	pool    *ChannelPool
	logger  *slog.Logger

	closeOnce sync.Once
}

// ID returns the link identifier
func (l *Link) ID() string {
	return l.id
}

// Role returns "sender" or "receiver"
func (l *Link) Role() string {
	return l.role
}

// Entity returns the queue the link is attached to
func (l *Link) Entity() string {
	return l.entity
}

// AutoAck reports whether deliveries on a receiver link are settled by the
// broker on send. Always false for senders.
func (l *Link) AutoAck() bool {
	return l.autoAck
}

// Close detaches the link. Sender channels only carry confirm mode, which
// the next sender wants anyway, so they go back to the pool. Receiver
// channels carry qos and are discarded.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		if l.role == roleSender {
			l.pool.Put(l.ch)
		} else {
			l.pool.Discard(l.ch)
		}
		l.logger.Debug("link closed", "role", l.role, "entity", l.entity, "link", l.id)
	})
	return nil
}
