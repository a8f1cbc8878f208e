package connstr

import (
	"errors"
	"fmt"
)

var (
	ErrEmpty            = errors.New("connstr: connection string is empty")
	ErrMalformedSegment = errors.New("connstr: segment is not a key=value pair")
	ErrUnknownKey       = errors.New("connstr: unknown key")
	ErrDuplicateKey     = errors.New("connstr: duplicate key")
	ErrMissingEndpoint  = errors.New("connstr: endpoint is required")
	ErrInvalidEndpoint  = errors.New("connstr: invalid endpoint")
	ErrInvalidTimeout   = errors.New("connstr: invalid operation timeout")
)

// FormatError reports a connection string that could not be parsed.
// Values are never echoed back since they may hold credentials.
type FormatError struct {
	Key      string // Key of the offending segment, if known
	Position int    // Zero-based segment index, -1 when not segment specific
	Err      error  // One of the sentinel errors above, possibly wrapped
}

func (e *FormatError) Error() string {
	switch {
	case e.Key != "":
		return fmt.Sprintf("connection string format error: key %q: %v", e.Key, e.Err)
	case e.Position >= 0:
		return fmt.Sprintf("connection string format error: segment %d: %v", e.Position, e.Err)
	default:
		return fmt.Sprintf("connection string format error: %v", e.Err)
	}
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
