package bus

import (
	"errors"
	"fmt"

	"github.com/glimte/mmate-bus/connstr"
	"github.com/glimte/mmate-bus/internal/rabbitmq"
)

var (
	ErrAlreadyInitialized = errors.New("bus: endpoint initialization already started")
	ErrNotSettled         = errors.New("bus: pending result has not settled")
	ErrFactoryClosed      = errors.New("bus: messaging factory is closed")
)

// DescriptorFormatError reports a connection string that could not be parsed.
type DescriptorFormatError = connstr.FormatError

// ArgumentError reports a required argument that was absent or unusable.
// It is always returned before any endpoint is constructed.
type ArgumentError struct {
	Name   string // Argument name, e.g. "entityPath"
	Reason string // Empty when the argument was simply missing
}

func (e *ArgumentError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("bus: missing required argument %q", e.Name)
	}
	return fmt.Sprintf("bus: invalid argument %q: %s", e.Name, e.Reason)
}

func missingArgument(name string) error {
	return &ArgumentError{Name: name}
}

// InitializationError reports that an endpoint failed to initialize, for
// example because the entity does not exist, access was refused or the
// broker could not be reached. The failed endpoint is released and never
// handed out.
type InitializationError struct {
	Kind       Kind
	EntityPath string
	Err        error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("bus: %s initialization failed for entity %q: %v", e.Kind, e.EntityPath, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// InterruptionError reports that a blocking call's context ended before the
// endpoint finished initializing. It unwraps to the context's error.
type InterruptionError struct {
	Err error
}

func (e *InterruptionError) Error() string {
	return fmt.Sprintf("bus: interrupted while waiting for endpoint initialization: %v", e.Err)
}

func (e *InterruptionError) Unwrap() error {
	return e.Err
}

// IsEntityNotFound reports whether err was caused by the broker not knowing the entity.
func IsEntityNotFound(err error) bool {
	return rabbitmq.IsNotFound(err)
}

// IsUnauthorized reports whether err was caused by the broker refusing access.
func IsUnauthorized(err error) bool {
	return rabbitmq.IsAccessRefused(err)
}

// IsRetryable reports whether creating the endpoint again may succeed.
// Argument, format and interruption errors are never retryable.
func IsRetryable(err error) bool {
	var argErr *ArgumentError
	var formatErr *DescriptorFormatError
	var interruptErr *InterruptionError
	switch {
	case err == nil,
		errors.As(err, &argErr),
		errors.As(err, &formatErr),
		errors.As(err, &interruptErr),
		errors.Is(err, ErrFactoryClosed):
		return false
	}
	return rabbitmq.IsRetryable(err)
}
