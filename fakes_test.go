package bus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/glimte/mmate-bus/connstr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

const testConnectionString = "Endpoint=amqp://broker.local:5672/;SharedAccessKeyName=app;SharedAccessKey=secret;EntityPath=orders/entity1"

type fakeLink struct {
	id     string
	closed atomic.Bool
}

func newFakeLink() *fakeLink {
	return &fakeLink{id: uuid.New().String()}
}

func (l *fakeLink) ID() string {
	return l.id
}

func (l *fakeLink) Close() error {
	l.closed.Store(true)
	return nil
}

// fakeBroker is a spy standing in for the AMQP collaborator. Unexpected
// calls panic through testify's mock.
type fakeBroker struct {
	mock.Mock
}

func (b *fakeBroker) OpenSender(ctx context.Context, entity string) (link, error) {
	args := b.Called(entity)
	l, _ := args.Get(0).(link)
	return l, args.Error(1)
}

func (b *fakeBroker) OpenReceiver(ctx context.Context, entity string, cfg ReceiveConfig) (link, error) {
	args := b.Called(entity, cfg)
	l, _ := args.Get(0).(link)
	return l, args.Error(1)
}

func (b *fakeBroker) Close() error {
	args := b.Called()
	return args.Error(0)
}

// dialSpy replaces dialBroker for the duration of a test.
type dialSpy struct {
	mu       sync.Mutex
	calls    int
	builders []*connstr.Builder
	broker   broker
	err      error
}

func stubDial(t *testing.T, br broker, err error) *dialSpy {
	t.Helper()
	spy := &dialSpy{broker: br, err: err}
	original := dialBroker
	dialBroker = func(ctx context.Context, b *connstr.Builder, cfg factoryConfig) (broker, error) {
		spy.mu.Lock()
		defer spy.mu.Unlock()
		spy.calls++
		spy.builders = append(spy.builders, b)
		if spy.err != nil {
			return nil, spy.err
		}
		return spy.broker, nil
	}
	t.Cleanup(func() { dialBroker = original })
	return spy
}

func (s *dialSpy) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newSharedFactory(br broker) *MessagingFactory {
	return newMessagingFactory(br, "amqp://broker.local:5672/", slog.Default())
}

func defaultReceive() ReceiveConfig {
	return ReceiveConfig{Mode: PeekLock, PrefetchCount: DefaultPrefetchCount}
}
