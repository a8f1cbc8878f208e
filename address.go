package bus

import (
	"github.com/glimte/mmate-bus/connstr"
)

type addressKind int

const (
	addressNone addressKind = iota
	addressConnectionString
	addressBuilder
	addressEntityPath
)

// Address identifies the entity an endpoint attaches to. Build one with
// ConnectionString, ConnectionStringBuilder or EntityPath; the zero value
// is rejected.
type Address struct {
	kind             addressKind
	connectionString string
	builder          *connstr.Builder
	factory          *MessagingFactory
	entityPath       string
}

// ConnectionString addresses the entity named by a raw connection string.
// The endpoint dials and owns its own connection.
func ConnectionString(s string) Address {
	return Address{kind: addressConnectionString, connectionString: s}
}

// ConnectionStringBuilder addresses the entity named by a parsed connection
// string. The endpoint dials and owns its own connection.
func ConnectionStringBuilder(b *connstr.Builder) Address {
	return Address{kind: addressBuilder, builder: b}
}

// EntityPath addresses entityPath on a shared messaging factory.
func EntityPath(f *MessagingFactory, entityPath string) Address {
	return Address{kind: addressEntityPath, factory: f, entityPath: entityPath}
}

// resolvedAddress carries exactly one of builder or factory.
type resolvedAddress struct {
	builder    *connstr.Builder
	factory    *MessagingFactory
	entityPath string
}

func (a Address) validate() error {
	switch a.kind {
	case addressConnectionString:
		if a.connectionString == "" {
			return missingArgument("connectionString")
		}
	case addressBuilder:
		if a.builder == nil {
			return missingArgument("connectionStringBuilder")
		}
	case addressEntityPath:
		if a.factory == nil {
			return missingArgument("messagingFactory")
		}
		if a.entityPath == "" {
			return missingArgument("entityPath")
		}
	default:
		return missingArgument("address")
	}
	return nil
}

// resolve reduces every address shape to a builder or a factory plus entity
// path. It does no I/O; a connection string is parsed here and may fail
// with a *DescriptorFormatError.
func (a Address) resolve() (resolvedAddress, error) {
	switch a.kind {
	case addressConnectionString:
		b, err := connstr.Parse(a.connectionString)
		if err != nil {
			return resolvedAddress{}, err
		}
		return resolveBuilder(b)
	case addressBuilder:
		return resolveBuilder(a.builder)
	case addressEntityPath:
		return resolvedAddress{factory: a.factory, entityPath: a.entityPath}, nil
	}
	return resolvedAddress{}, missingArgument("address")
}

func resolveBuilder(b *connstr.Builder) (resolvedAddress, error) {
	if _, err := b.URI(); err != nil {
		return resolvedAddress{}, err
	}
	if b.EntityPath == "" {
		return resolvedAddress{}, &ArgumentError{Name: "entityPath", Reason: "connection string has no EntityPath"}
	}
	return resolvedAddress{builder: b, entityPath: b.EntityPath}, nil
}
