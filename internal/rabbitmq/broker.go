package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BrokerConfig configures Dial
type BrokerConfig struct {
	URL                  string
	OperationTimeout     time.Duration
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int // Zero or negative retries forever
	MaxChannels          int
	Logger               *slog.Logger
}

const (
	roleSender   = "sender"
	roleReceiver = "receiver"
)

// Broker is one reconnecting AMQP connection plus the channel pool links
// are opened on. It is safe for concurrent use.
type Broker struct {
	manager *ConnectionManager
	pool    *ChannelPool
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Dial connects to the broker described by cfg
func Dial(ctx context.Context, cfg BrokerConfig) (*Broker, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: broker URL is empty", ErrInvalidConfiguration)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.OperationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	connOpts := []ConnectionOption{
		WithLogger(logger),
		WithConnectTimeout(timeout),
	}
	if cfg.MaxReconnectAttempts > 0 {
		connOpts = append(connOpts, WithMaxReconnectAttempts(cfg.MaxReconnectAttempts))
	}
	if cfg.ReconnectDelay > 0 {
		connOpts = append(connOpts, WithReconnectDelay(cfg.ReconnectDelay))
	}
	manager := NewConnectionManager(cfg.URL, connOpts...)

	if err := manager.Connect(ctx); err != nil {
		return nil, err
	}

	poolOpts := []ChannelPoolOption{WithPoolLogger(logger), WithWaitTimeout(timeout)}
	if cfg.MaxChannels > 0 {
		poolOpts = append(poolOpts, WithMaxChannels(cfg.MaxChannels))
	}
	pool, err := NewChannelPool(manager, poolOpts...)
	if err != nil {
		manager.Close()
		return nil, err
	}

	return newBroker(manager, pool, timeout, logger), nil
}

// newBroker assembles a broker and subscribes it to connection state changes
func newBroker(manager *ConnectionManager, pool *ChannelPool, timeout time.Duration, logger *slog.Logger) *Broker {
	b := &Broker{
		manager: manager,
		pool:    pool,
		timeout: timeout,
		logger:  logger,
	}
	manager.AddStateListener(b)
	return b
}

// OnConnected implements ConnectionStateListener
func (b *Broker) OnConnected() {
	b.logger.Debug("broker connection available")
}

// OnDisconnected implements ConnectionStateListener. Idle channels belonged
// to the lost connection and are dropped so their slots free up at once.
func (b *Broker) OnDisconnected(err error) {
	n := b.pool.DrainIdle()
	b.logger.Warn("broker connection lost", "error", err, "droppedChannels", n)
}

// OnReconnecting implements ConnectionStateListener
func (b *Broker) OnReconnecting(attempt int) {
	b.logger.Info("broker reconnecting", "attempt", attempt)
}

// ReceiverOptions describes a receiver link
type ReceiverOptions struct {
	Entity        string
	PrefetchCount int
	AutoAck       bool // broker settles deliveries on send
}

// OpenSender attaches a sender link to entity. The entity must already exist.
func (b *Broker) OpenSender(ctx context.Context, entity string) (*Link, error) {
	return b.openLink(ctx, roleSender, entity, func(ch *PooledChannel) (string, error) {
		if ch.confirming {
			return "", nil
		}
		if err := ch.Confirm(false); err != nil {
			return "enable confirms", err
		}
		ch.confirming = true
		return "", nil
	})
}

// OpenReceiver attaches a receiver link to opts.Entity. The entity must already exist.
func (b *Broker) OpenReceiver(ctx context.Context, opts ReceiverOptions) (*Link, error) {
	l, err := b.openLink(ctx, roleReceiver, opts.Entity, func(ch *PooledChannel) (string, error) {
		if err := ch.Qos(opts.PrefetchCount, 0, false); err != nil {
			return "set qos", err
		}
		return "", nil
	})
	if err != nil {
		return nil, err
	}
	l.autoAck = opts.AutoAck
	return l, nil
}

// openLink checks out a channel, verifies the entity exists and applies
// the role specific setup. The channel is discarded on any failure.
func (b *Broker) openLink(ctx context.Context, role, entity string, setup func(*PooledChannel) (string, error)) (*Link, error) {
	if entity == "" {
		return nil, &LinkError{Role: role, Op: "validate", Err: ErrEmptyEntity, Timestamp: time.Now()}
	}

	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return nil, &LinkError{Role: role, Entity: entity, Op: "open", Err: ErrBrokerClosed, Timestamp: time.Now()}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	ch, err := b.pool.Get(ctx)
	if err != nil {
		return nil, &LinkError{Role: role, Entity: entity, Op: "acquire channel", Err: err, Timestamp: time.Now()}
	}

	if _, err := ch.QueueDeclarePassive(entity, true, false, false, false, nil); err != nil {
		b.pool.Discard(ch)
		return nil, &LinkError{Role: role, Entity: entity, Op: "verify entity", Err: err, Timestamp: time.Now()}
	}

	if op, err := setup(ch); err != nil {
		b.pool.Discard(ch)
		return nil, &LinkError{Role: role, Entity: entity, Op: op, Err: err, Timestamp: time.Now()}
	}

	l := &Link{
		id:     uuid.New().String(),
		role:   role,
		entity: entity,
		ch:     ch,
		pool:   b.pool,
		logger: b.logger,
	}

	b.logger.Debug("link opened",
		"role", role,
		"entity", entity,
		"link", l.id,
		"channel", ch.ID())

	return l, nil
}

// Close closes the channel pool and the connection. It is idempotent.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.manager.RemoveStateListener(b)
	b.pool.Close()
	return b.manager.Close()
}
