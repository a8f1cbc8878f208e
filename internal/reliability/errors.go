package reliability

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMaxRetriesExceeded is wrapped by RetryError when the attempt budget runs out.
	ErrMaxRetriesExceeded = errors.New("retry: maximum attempts exceeded")
	// ErrNonRetryable marks an error the policy refused to retry.
	ErrNonRetryable = errors.New("retry: error is not retryable")
)

// RetryError reports the final failure of a retried operation
type RetryError struct {
	Attempts  int
	LastError error
	Duration  time.Duration
	Reason    error // ErrMaxRetriesExceeded or ErrNonRetryable
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retry failed after %d attempts over %v: %v",
		e.Attempts, e.Duration.Round(time.Millisecond), e.LastError)
}

// Unwrap exposes both the reason and the last error to errors.Is and errors.As.
func (e *RetryError) Unwrap() []error {
	return []error{e.Reason, e.LastError}
}
