package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// channelSource hands out connections to the pool. *ConnectionManager implements it.
type channelSource interface {
	GetConnection() (*amqp.Connection, error)
}

// ChannelPool caps and recycles the AMQP channels opened on one connection.
// Links check a channel out for their whole lifetime. Sender channels come
// back to the pool when their link closes; receiver channels are discarded.
type ChannelPool struct {
	source      channelSource
	closeFn     func(*amqp.Channel) error
	channels    chan *PooledChannel
	maxSize     int
	idleTimeout time.Duration
	waitTimeout time.Duration
	logger      *slog.Logger
	mu          sync.Mutex
	closed      bool
	activeCount int
	done        chan struct{}
}

// PooledChannel wraps an AMQP channel with pool metadata
type PooledChannel struct {
	*amqp.Channel
	lastUsed   time.Time
	id         string
	confirming bool // confirm mode cannot be turned off once enabled
}

// ID identifies the channel in logs
func (pc *PooledChannel) ID() string {
	return pc.id
}

// ChannelPoolOption configures the channel pool
type ChannelPoolOption func(*ChannelPool)

// WithMaxChannels sets the maximum number of open channels
func WithMaxChannels(size int) ChannelPoolOption {
	return func(cp *ChannelPool) {
		cp.maxSize = size
	}
}

// WithIdleTimeout sets how long an idle pooled channel is kept open
func WithIdleTimeout(timeout time.Duration) ChannelPoolOption {
	return func(cp *ChannelPool) {
		cp.idleTimeout = timeout
	}
}

// WithWaitTimeout bounds how long Get waits for a channel when the pool is at capacity
func WithWaitTimeout(timeout time.Duration) ChannelPoolOption {
	return func(cp *ChannelPool) {
		cp.waitTimeout = timeout
	}
}

// WithPoolLogger sets the logger
func WithPoolLogger(logger *slog.Logger) ChannelPoolOption {
	return func(cp *ChannelPool) {
		if logger != nil {
			cp.logger = logger
		}
	}
}

// NewChannelPool creates a channel pool. Channels are opened lazily.
func NewChannelPool(source channelSource, options ...ChannelPoolOption) (*ChannelPool, error) {
	if source == nil {
		return nil, ErrInvalidConfiguration
	}

	pool := &ChannelPool{
		source:      source,
		closeFn:     (*amqp.Channel).Close,
		maxSize:     64,
		idleTimeout: 5 * time.Minute,
		waitTimeout: 5 * time.Second,
		logger:      slog.Default(),
		done:        make(chan struct{}),
	}

	for _, opt := range options {
		opt(pool)
	}

	if pool.maxSize < 1 {
		return nil, fmt.Errorf("%w: max channels must be at least 1", ErrInvalidConfiguration)
	}

	pool.channels = make(chan *PooledChannel, pool.maxSize)

	go pool.cleanupIdle()

	return pool, nil
}

// Get retrieves an open channel, creating one while under capacity
func (cp *ChannelPool) Get(ctx context.Context) (*PooledChannel, error) {
	for {
		cp.mu.Lock()
		if cp.closed {
			cp.mu.Unlock()
			return nil, ErrChannelPoolClosed
		}
		cp.mu.Unlock()

		select {
		case ch := <-cp.channels:
			if ch.Channel.IsClosed() {
				cp.release()
				continue
			}
			ch.lastUsed = time.Now()
			return ch, nil
		default:
		}

		if cp.reserve() {
			return cp.createChannel(ctx)
		}

		select {
		case ch := <-cp.channels:
			if ch.Channel.IsClosed() {
				cp.release()
				continue
			}
			ch.lastUsed = time.Now()
			return ch, nil

		case <-ctx.Done():
			return nil, &ChannelError{Op: "get channel", ChannelID: "pool", Err: ctx.Err(), Timestamp: time.Now()}

		case <-time.After(cp.waitTimeout):
			return nil, &ChannelError{Op: "get channel", ChannelID: "pool", Err: ErrChannelPoolExhausted, Timestamp: time.Now()}
		}
	}
}

// Put returns a healthy channel to the pool
func (cp *ChannelPool) Put(ch *PooledChannel) {
	if ch == nil {
		return
	}

	cp.mu.Lock()
	closed := cp.closed
	cp.mu.Unlock()

	if closed || ch.Channel.IsClosed() {
		cp.Discard(ch)
		return
	}

	ch.lastUsed = time.Now()

	select {
	case cp.channels <- ch:
	default:
		cp.Discard(ch)
	}
}

// Discard closes a channel and frees its slot. Used for channels whose
// state can no longer be trusted, such as ones left in confirm mode.
func (cp *ChannelPool) Discard(ch *PooledChannel) {
	if ch == nil {
		return
	}
	if !ch.Channel.IsClosed() {
		if err := cp.closeFn(ch.Channel); err != nil && err != amqp.ErrClosed {
			cp.logger.Debug("channel close failed", "channel", ch.id, "error", err)
		}
	}
	cp.release()
}

// Close closes all idle channels. Checked-out channels are closed when
// their link returns them.
func (cp *ChannelPool) Close() error {
	cp.mu.Lock()
	if cp.closed {
		cp.mu.Unlock()
		return nil
	}
	cp.closed = true
	close(cp.done)
	cp.mu.Unlock()

	for {
		select {
		case ch := <-cp.channels:
			cp.Discard(ch)
		default:
			return nil
		}
	}
}

// Size returns the number of open channels, idle or checked out
func (cp *ChannelPool) Size() int {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.activeCount
}

func (cp *ChannelPool) reserve() bool {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if cp.activeCount >= cp.maxSize {
		return false
	}
	cp.activeCount++
	return true
}

func (cp *ChannelPool) release() {
	cp.mu.Lock()
	if cp.activeCount > 0 {
		cp.activeCount--
	}
	cp.mu.Unlock()
}

// createChannel opens a channel on a reserved slot
func (cp *ChannelPool) createChannel(ctx context.Context) (*PooledChannel, error) {
	if err := ctx.Err(); err != nil {
		cp.release()
		return nil, &ChannelError{Op: "create channel", ChannelID: "new", Err: err, Timestamp: time.Now()}
	}

	conn, err := cp.source.GetConnection()
	if err != nil {
		cp.release()
		return nil, &ChannelError{Op: "create channel", ChannelID: "new", Err: err, Timestamp: time.Now()}
	}

	ch, err := conn.Channel()
	if err != nil {
		cp.release()
		return nil, &ChannelError{
			Op:        "create channel",
			ChannelID: "new",
			Err:       fmt.Errorf("%w: %v", ErrChannelCreationFailed, err),
			Timestamp: time.Now(),
		}
	}

	return &PooledChannel{
		Channel:  ch,
		lastUsed: time.Now(),
		id:       uuid.New().String(),
	}, nil
}

// DrainIdle discards every idle channel. The broker calls it when the
// connection drops, since those channels died with it.
func (cp *ChannelPool) DrainIdle() int {
	return cp.evictIdle(time.Now().Add(time.Hour))
}

// cleanupIdle closes pooled channels that sat unused past the idle timeout
func (cp *ChannelPool) cleanupIdle() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-cp.done:
			return
		case <-ticker.C:
		}

		if n := cp.evictIdle(time.Now().Add(-cp.idleTimeout)); n > 0 {
			cp.logger.Debug("closed idle channels", "count", n)
		}
	}
}

// evictIdle discards idle channels last used before cutoff and returns how many it closed
func (cp *ChannelPool) evictIdle(cutoff time.Time) int {
	var keep []*PooledChannel
	evicted := 0

drain:
	for {
		select {
		case ch := <-cp.channels:
			if ch.lastUsed.Before(cutoff) {
				cp.Discard(ch)
				evicted++
			} else {
				keep = append(keep, ch)
			}
		default:
			break drain
		}
	}

	// Requeue without touching lastUsed.
	for _, ch := range keep {
		select {
		case cp.channels <- ch:
		default:
			cp.Discard(ch)
		}
	}
	return evicted
}
