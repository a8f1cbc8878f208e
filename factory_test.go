package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/glimte/mmate-bus/connstr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagingFactory(t *testing.T) {
	t.Run("NewMessagingFactory requires a builder", func(t *testing.T) {
		_, err := NewMessagingFactory(context.Background(), nil)
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, "connectionStringBuilder", argErr.Name)
	})

	t.Run("NewMessagingFactoryFromConnectionString validates its input", func(t *testing.T) {
		spy := stubDial(t, nil, nil)

		_, err := NewMessagingFactoryFromConnectionString(context.Background(), "")
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)

		_, err = NewMessagingFactoryFromConnectionString(context.Background(), "Endpoint=ftp://broker.local/")
		var formatErr *DescriptorFormatError
		require.ErrorAs(t, err, &formatErr)
		assert.ErrorIs(t, err, connstr.ErrInvalidEndpoint)

		assert.Equal(t, 0, spy.Calls())
	})

	t.Run("The builder's entity path is not required", func(t *testing.T) {
		br := &fakeBroker{}
		br.On("Close").Return(nil).Once()
		spy := stubDial(t, br, nil)

		f, err := NewMessagingFactoryFromConnectionString(context.Background(),
			"Endpoint=amqp://broker.local:5672/;SharedAccessKeyName=app;SharedAccessKey=secret")
		require.NoError(t, err)
		assert.Equal(t, 1, spy.Calls())
		assert.NotContains(t, f.Endpoint(), "secret")

		require.NoError(t, f.Close())
		require.NoError(t, f.Close())
		br.AssertExpectations(t)
	})

	t.Run("Dial errors are returned unchanged", func(t *testing.T) {
		unreachable := errors.New("unreachable")
		stubDial(t, nil, unreachable)

		b, err := connstr.New("amqp://broker.local/", "", "", "")
		require.NoError(t, err)

		_, err = NewMessagingFactory(context.Background(), b)
		assert.Equal(t, unreachable, err)
	})

	t.Run("Options are validated", func(t *testing.T) {
		b, err := connstr.New("amqp://broker.local/", "", "", "")
		require.NoError(t, err)

		_, err = NewMessagingFactory(context.Background(), b, WithPrefetchCount(-5))
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
	})
}

func TestReceiverOptions(t *testing.T) {
	t.Run("PeekLock keeps deliveries unsettled", func(t *testing.T) {
		opts := receiverOptions("orders", ReceiveConfig{Mode: PeekLock, PrefetchCount: 10})

		assert.Equal(t, "orders", opts.Entity)
		assert.Equal(t, 10, opts.PrefetchCount)
		assert.False(t, opts.AutoAck)
	})

	t.Run("ReceiveAndDelete lets the broker settle", func(t *testing.T) {
		opts := receiverOptions("orders/sessions/s1", ReceiveConfig{Mode: ReceiveAndDelete, SessionID: "s1", PrefetchCount: 3})

		assert.Equal(t, "orders/sessions/s1", opts.Entity)
		assert.Equal(t, 3, opts.PrefetchCount)
		assert.True(t, opts.AutoAck)
	})
}
