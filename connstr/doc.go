// Package connstr parses and formats mmate-bus connection strings.
//
// A connection string is a semicolon separated list of key=value pairs:
//
//	Endpoint=amqp://broker.local:5672/orders;SharedAccessKeyName=app;SharedAccessKey=secret;EntityPath=orders/entity1
//
// Recognized keys (case-insensitive):
//   - Endpoint: broker address. Schemes amqp, amqps and sb are accepted; sb maps to amqps
//   - SharedAccessKeyName: user name presented to the broker
//   - SharedAccessKey: password presented to the broker
//   - EntityPath: queue the endpoint binds to
//   - OperationTimeout: deadline for broker operations, as a Go duration or whole seconds
//
// Malformed input is reported as a *FormatError wrapping one of the
// sentinel errors declared in this package.
package connstr
