package connstr

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultOperationTimeout applies when a connection string omits OperationTimeout.
const DefaultOperationTimeout = 30 * time.Second

const (
	keyEndpoint         = "endpoint"
	keySharedAccessName = "sharedaccesskeyname"
	keySharedAccessKey  = "sharedaccesskey"
	keyEntityPath       = "entitypath"
	keyOperationTimeout = "operationtimeout"
)

// Builder is a parsed connection string.
type Builder struct {
	Endpoint            string
	SharedAccessKeyName string
	SharedAccessKey     string
	EntityPath          string
	OperationTimeout    time.Duration
}

// New creates a builder from its parts, validating the endpoint.
func New(endpoint, entityPath, keyName, key string) (*Builder, error) {
	b := &Builder{
		Endpoint:            endpoint,
		SharedAccessKeyName: keyName,
		SharedAccessKey:     key,
		EntityPath:          entityPath,
	}
	if err := b.validateEndpoint(); err != nil {
		return nil, err
	}
	return b, nil
}

// Parse parses a connection string.
func Parse(s string) (*Builder, error) {
	if strings.TrimSpace(s) == "" {
		return nil, &FormatError{Position: -1, Err: ErrEmpty}
	}

	b := &Builder{}
	seen := make(map[string]bool)

	for i, segment := range strings.Split(s, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		name, value, ok := strings.Cut(segment, "=")
		if !ok {
			return nil, &FormatError{Position: i, Err: ErrMalformedSegment}
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		key := strings.ToLower(name)

		if seen[key] {
			return nil, &FormatError{Key: name, Position: i, Err: ErrDuplicateKey}
		}
		seen[key] = true

		switch key {
		case keyEndpoint:
			b.Endpoint = value
		case keySharedAccessName:
			b.SharedAccessKeyName = value
		case keySharedAccessKey:
			b.SharedAccessKey = value
		case keyEntityPath:
			b.EntityPath = value
		case keyOperationTimeout:
			timeout, err := parseTimeout(value)
			if err != nil {
				return nil, &FormatError{Key: name, Position: i, Err: err}
			}
			b.OperationTimeout = timeout
		default:
			return nil, &FormatError{Key: name, Position: i, Err: ErrUnknownKey}
		}
	}

	if err := b.validateEndpoint(); err != nil {
		return nil, err
	}
	return b, nil
}

// parseTimeout accepts a Go duration ("45s") or whole seconds ("45").
func parseTimeout(value string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0, ErrInvalidTimeout
		}
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, ErrInvalidTimeout
	}
	return d, nil
}

func (b *Builder) validateEndpoint() error {
	if b.Endpoint == "" {
		return &FormatError{Key: "Endpoint", Position: -1, Err: ErrMissingEndpoint}
	}
	if _, err := amqp.ParseURI(normalizeScheme(b.Endpoint)); err != nil {
		return endpointError(err)
	}
	return nil
}

// endpointError reports an endpoint amqp.ParseURI rejected. URL and port
// parse errors quote the raw endpoint, credentials included, so only the
// sentinel is kept for them.
func endpointError(cause error) error {
	var urlErr *url.Error
	var numErr *strconv.NumError
	if errors.As(cause, &urlErr) || errors.As(cause, &numErr) {
		return &FormatError{Key: "Endpoint", Position: -1, Err: ErrInvalidEndpoint}
	}
	return &FormatError{Key: "Endpoint", Position: -1, Err: fmt.Errorf("%w: %v", ErrInvalidEndpoint, cause)}
}

// normalizeScheme maps sb:// endpoints onto AMQP over TLS.
func normalizeScheme(endpoint string) string {
	if rest, ok := strings.CutPrefix(endpoint, "sb://"); ok {
		return "amqps://" + rest
	}
	return endpoint
}

// URI returns the broker URI with the shared access credentials applied.
func (b *Builder) URI() (amqp.URI, error) {
	uri, err := amqp.ParseURI(normalizeScheme(b.Endpoint))
	if err != nil {
		return amqp.URI{}, endpointError(err)
	}
	if b.SharedAccessKeyName != "" {
		uri.Username = b.SharedAccessKeyName
	}
	if b.SharedAccessKey != "" {
		uri.Password = b.SharedAccessKey
	}
	return uri, nil
}

// AMQPURL returns the dialable broker URL.
func (b *Builder) AMQPURL() (string, error) {
	uri, err := b.URI()
	if err != nil {
		return "", err
	}
	return uri.String(), nil
}

// Timeout returns the operation timeout, falling back to DefaultOperationTimeout.
func (b *Builder) Timeout() time.Duration {
	if b.OperationTimeout <= 0 {
		return DefaultOperationTimeout
	}
	return b.OperationTimeout
}

// WithEntityPath returns a copy of b bound to another entity.
func (b *Builder) WithEntityPath(entityPath string) *Builder {
	clone := *b
	clone.EntityPath = entityPath
	return &clone
}

// String formats the builder back into a connection string. Parse(b.String())
// yields an equivalent builder.
func (b *Builder) String() string {
	var sb strings.Builder
	write := func(key, value string) {
		if value == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(value)
	}

	write("Endpoint", b.Endpoint)
	write("SharedAccessKeyName", b.SharedAccessKeyName)
	write("SharedAccessKey", b.SharedAccessKey)
	write("EntityPath", b.EntityPath)
	if b.OperationTimeout > 0 {
		write("OperationTimeout", b.OperationTimeout.String())
	}
	return sb.String()
}
