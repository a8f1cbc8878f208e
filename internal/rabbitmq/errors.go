package rabbitmq

import (
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// Connection errors
	ErrConnectionClosed   = errors.New("rabbitmq: connection is closed")
	ErrConnectionNotReady = errors.New("rabbitmq: connection not ready")
	ErrMaxRetriesExceeded = errors.New("rabbitmq: maximum reconnection attempts exceeded")
	ErrConnectionTimeout  = errors.New("rabbitmq: connection timeout")

	// Channel errors
	ErrChannelPoolClosed     = errors.New("rabbitmq: channel pool is closed")
	ErrChannelPoolExhausted  = errors.New("rabbitmq: channel pool exhausted")
	ErrChannelCreationFailed = errors.New("rabbitmq: failed to create channel")

	// Link errors
	ErrBrokerClosed = errors.New("rabbitmq: broker is closed")
	ErrEmptyEntity  = errors.New("rabbitmq: entity path is empty")

	// General errors
	ErrInvalidConfiguration = errors.New("rabbitmq: invalid configuration")
)

// ConnectionError represents a connection-related error
type ConnectionError struct {
	Op        string    // Operation that failed
	URL       string    // Connection URL (sanitized)
	Err       error     // Underlying error
	Timestamp time.Time // When the error occurred
	Attempts  int       // Number of attempts made
}

func (e *ConnectionError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("rabbitmq connection error: %s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("rabbitmq connection error: %s failed: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ChannelError represents a channel-related error
type ChannelError struct {
	Op        string    // Operation that failed
	ChannelID string    // Channel identifier
	Err       error     // Underlying error
	Timestamp time.Time // When the error occurred
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("rabbitmq channel error: %s on channel %s: %v", e.Op, e.ChannelID, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// LinkError reports a failure while attaching a sender or receiver link to an entity
type LinkError struct {
	Role      string    // "sender" or "receiver"
	Entity    string    // Queue the link targets
	Op        string    // Step that failed
	Err       error     // Underlying error, often *amqp.Error
	Timestamp time.Time // When the error occurred
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("rabbitmq %s link error: %s on entity %q: %v", e.Role, e.Op, e.Entity, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err carries the broker's 404 reply
func IsNotFound(err error) bool {
	return hasCode(err, amqp.NotFound)
}

// IsAccessRefused reports whether err carries the broker's 403 reply
func IsAccessRefused(err error) bool {
	return hasCode(err, amqp.AccessRefused)
}

func hasCode(err error, code int) bool {
	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		return amqpErr.Code == code
	}
	return false
}

// IsRetryable determines if an error is worth retrying at a higher layer
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrInvalidConfiguration),
		errors.Is(err, ErrMaxRetriesExceeded),
		errors.Is(err, ErrBrokerClosed),
		errors.Is(err, ErrEmptyEntity):
		return false
	case IsNotFound(err), IsAccessRefused(err):
		return false
	}

	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		return amqpErr.Recover
	}

	return true
}
