package bus

import (
	"log/slog"
	"time"
)

// factoryConfig configures connections dialed on behalf of an endpoint or
// by NewMessagingFactory.
type factoryConfig struct {
	logger               *slog.Logger
	reconnectDelay       time.Duration
	maxReconnectAttempts int
	maxChannels          int
}

type settings struct {
	receive ReceiveConfig
	factory factoryConfig
}

// Option configures endpoint and factory creation.
type Option func(*settings)

// WithReceiveMode sets the receive mode of receivers and sessions. Senders ignore it.
func WithReceiveMode(mode ReceiveMode) Option {
	return func(s *settings) {
		s.receive.Mode = mode
	}
}

// WithPrefetchCount sets how many unsettled messages a receiver may hold.
func WithPrefetchCount(count int) Option {
	return func(s *settings) {
		s.receive.PrefetchCount = count
	}
}

// WithLogger sets the logger used by connections and links
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.factory.logger = logger
	}
}

// WithReconnectDelay sets the base delay between reconnection attempts
func WithReconnectDelay(delay time.Duration) Option {
	return func(s *settings) {
		s.factory.reconnectDelay = delay
	}
}

// WithMaxReconnectAttempts caps reconnection attempts; zero retries forever
func WithMaxReconnectAttempts(attempts int) Option {
	return func(s *settings) {
		s.factory.maxReconnectAttempts = attempts
	}
}

// WithMaxChannels caps the channels a connection may open
func WithMaxChannels(n int) Option {
	return func(s *settings) {
		s.factory.maxChannels = n
	}
}

func newSettings(opts []Option) (settings, error) {
	s := settings{
		receive: ReceiveConfig{
			Mode:          PeekLock,
			PrefetchCount: DefaultPrefetchCount,
		},
		factory: factoryConfig{
			logger: slog.Default(),
		},
	}

	for _, opt := range opts {
		opt(&s)
	}

	if !s.receive.Mode.valid() {
		return settings{}, &ArgumentError{Name: "receiveMode", Reason: "unknown receive mode " + s.receive.Mode.String()}
	}
	if s.receive.PrefetchCount < 0 {
		return settings{}, &ArgumentError{Name: "prefetchCount", Reason: "must not be negative"}
	}
	if s.factory.logger == nil {
		s.factory.logger = slog.Default()
	}
	return s, nil
}
