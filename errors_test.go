package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/glimte/mmate-bus/connstr"
	"github.com/glimte/mmate-bus/internal/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `bus: missing required argument "entityPath"`, (&ArgumentError{Name: "entityPath"}).Error())
	assert.Equal(t, `bus: invalid argument "sessionId": too long`, (&ArgumentError{Name: "sessionId", Reason: "too long"}).Error())

	initErr := &InitializationError{Kind: KindSession, EntityPath: "orders", Err: errors.New("boom")}
	assert.Equal(t, `bus: session initialization failed for entity "orders": boom`, initErr.Error())

	interruptErr := &InterruptionError{Err: context.Canceled}
	assert.ErrorIs(t, interruptErr, context.Canceled)
	assert.Contains(t, interruptErr.Error(), "interrupted")
}

func TestErrorClassification(t *testing.T) {
	notFound := &InitializationError{
		Kind:       KindReceiver,
		EntityPath: "missing",
		Err: &rabbitmq.LinkError{
			Role:   "receiver",
			Entity: "missing",
			Op:     "verify entity",
			Err:    &amqp.Error{Code: amqp.NotFound, Reason: "NOT_FOUND - no queue 'missing'"},
		},
	}
	refused := &InitializationError{
		Kind: KindSender,
		Err:  &rabbitmq.ConnectionError{Op: "connect", Err: &amqp.Error{Code: amqp.AccessRefused}},
	}

	t.Run("IsEntityNotFound", func(t *testing.T) {
		assert.True(t, IsEntityNotFound(notFound))
		assert.False(t, IsEntityNotFound(refused))
	})

	t.Run("IsUnauthorized", func(t *testing.T) {
		assert.True(t, IsUnauthorized(refused))
		assert.False(t, IsUnauthorized(notFound))
	})

	t.Run("IsRetryable", func(t *testing.T) {
		_, formatErr := connstr.Parse("bogus")
		require.Error(t, formatErr)

		assert.False(t, IsRetryable(nil))
		assert.False(t, IsRetryable(&ArgumentError{Name: "entityPath"}))
		assert.False(t, IsRetryable(formatErr))
		assert.False(t, IsRetryable(&InterruptionError{Err: context.Canceled}))
		assert.False(t, IsRetryable(&InitializationError{Err: ErrFactoryClosed}))
		assert.False(t, IsRetryable(notFound))
		assert.False(t, IsRetryable(refused))
		assert.True(t, IsRetryable(&InitializationError{Err: &rabbitmq.ConnectionError{Op: "connect", Err: rabbitmq.ErrConnectionTimeout}}))
	})
}

func TestReceiveMode(t *testing.T) {
	tests := []struct {
		input string
		want  ReceiveMode
	}{
		{"PeekLock", PeekLock},
		{"peek-lock", PeekLock},
		{" receiveanddelete ", ReceiveAndDelete},
		{"Receive-And-Delete", ReceiveAndDelete},
	}
	for _, tt := range tests {
		got, err := ParseReceiveMode(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseReceiveMode("eventually")
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "receiveMode", argErr.Name)

	assert.Equal(t, "PeekLock", PeekLock.String())
	assert.Equal(t, "ReceiveAndDelete", ReceiveAndDelete.String())
	assert.Equal(t, "ReceiveMode(9)", ReceiveMode(9).String())
	assert.Equal(t, PeekLock, ReceiveMode(0))
}

func TestStateAndKindStrings(t *testing.T) {
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(42)", State(42).String())
	assert.Equal(t, "sender", KindSender.String())
	assert.Equal(t, "Kind(0)", Kind(0).String())
}
