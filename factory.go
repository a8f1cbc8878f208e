package bus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/glimte/mmate-bus/connstr"
	"github.com/glimte/mmate-bus/internal/rabbitmq"
)

// link is an attached sender or receiver.
type link interface {
	ID() string
	Close() error
}

// broker opens links on one connection. It must tolerate concurrent calls.
type broker interface {
	OpenSender(ctx context.Context, entity string) (link, error)
	OpenReceiver(ctx context.Context, entity string, cfg ReceiveConfig) (link, error)
	Close() error
}

// amqpBroker adapts *rabbitmq.Broker to broker.
type amqpBroker struct {
	b *rabbitmq.Broker
}

func (a amqpBroker) OpenSender(ctx context.Context, entity string) (link, error) {
	l, err := a.b.OpenSender(ctx, entity)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (a amqpBroker) OpenReceiver(ctx context.Context, entity string, cfg ReceiveConfig) (link, error) {
	l, err := a.b.OpenReceiver(ctx, receiverOptions(entity, cfg))
	if err != nil {
		return nil, err
	}
	return l, nil
}

// receiverOptions maps a receive config onto a receiver link. ReceiveAndDelete
// lets the broker settle each delivery as it is sent.
func receiverOptions(entity string, cfg ReceiveConfig) rabbitmq.ReceiverOptions {
	return rabbitmq.ReceiverOptions{
		Entity:        entity,
		PrefetchCount: cfg.PrefetchCount,
		AutoAck:       cfg.Mode == ReceiveAndDelete,
	}
}

func (a amqpBroker) Close() error {
	return a.b.Close()
}

// dialBroker connects to the broker a builder describes.
var dialBroker = func(ctx context.Context, b *connstr.Builder, cfg factoryConfig) (broker, error) {
	url, err := b.AMQPURL()
	if err != nil {
		return nil, err
	}
	rb, err := rabbitmq.Dial(ctx, rabbitmq.BrokerConfig{
		URL:                  url,
		OperationTimeout:     b.Timeout(),
		ReconnectDelay:       cfg.reconnectDelay,
		MaxReconnectAttempts: cfg.maxReconnectAttempts,
		MaxChannels:          cfg.maxChannels,
		Logger:               cfg.logger,
	})
	if err != nil {
		return nil, err
	}
	return amqpBroker{b: rb}, nil
}

// MessagingFactory is a shared broker connection. Any number of endpoints
// may be created from one factory concurrently; they share its connection
// and it outlives them. Closing the factory does not close its endpoints,
// but their links stop working.
type MessagingFactory struct {
	broker   broker
	endpoint string
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewMessagingFactory connects to the broker described by b. The builder's
// EntityPath is ignored; endpoints name their entity with EntityPath.
func NewMessagingFactory(ctx context.Context, b *connstr.Builder, opts ...Option) (*MessagingFactory, error) {
	if b == nil {
		return nil, missingArgument("connectionStringBuilder")
	}
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	if _, err := b.URI(); err != nil {
		return nil, err
	}
	return dialFactory(ctx, b, s.factory)
}

// NewMessagingFactoryFromConnectionString parses s and connects to the broker it describes.
func NewMessagingFactoryFromConnectionString(ctx context.Context, s string, opts ...Option) (*MessagingFactory, error) {
	if s == "" {
		return nil, missingArgument("connectionString")
	}
	b, err := connstr.Parse(s)
	if err != nil {
		return nil, err
	}
	return NewMessagingFactory(ctx, b, opts...)
}

func dialFactory(ctx context.Context, b *connstr.Builder, cfg factoryConfig) (*MessagingFactory, error) {
	br, err := dialBroker(ctx, b, cfg)
	if err != nil {
		return nil, err
	}
	f := newMessagingFactory(br, rabbitmq.SanitizeURL(b.Endpoint), cfg.logger)
	f.logger.Info("messaging factory connected", "endpoint", f.endpoint)
	return f, nil
}

func newMessagingFactory(br broker, endpoint string, logger *slog.Logger) *MessagingFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessagingFactory{
		broker:   br,
		endpoint: endpoint,
		logger:   logger,
	}
}

// Endpoint returns the broker endpoint with credentials removed.
func (f *MessagingFactory) Endpoint() string {
	return f.endpoint
}

func (f *MessagingFactory) openSender(ctx context.Context, entity string) (link, error) {
	if f.isClosed() {
		return nil, ErrFactoryClosed
	}
	return f.broker.OpenSender(ctx, entity)
}

func (f *MessagingFactory) openReceiver(ctx context.Context, entity string, cfg ReceiveConfig) (link, error) {
	if f.isClosed() {
		return nil, ErrFactoryClosed
	}
	return f.broker.OpenReceiver(ctx, entity, cfg)
}

func (f *MessagingFactory) isClosed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}

// Close closes the connection. It is idempotent.
func (f *MessagingFactory) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	err := f.broker.Close()
	f.logger.Info("messaging factory closed", "endpoint", f.endpoint)
	return err
}
