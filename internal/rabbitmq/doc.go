// Package rabbitmq is the AMQP 0-9-1 collaborator behind mmate-bus endpoints.
//
// This package includes:
//   - ConnectionManager: one broker connection with automatic reconnection
//   - ChannelPool: bounded channel allocation on that connection
//   - Broker: the pair of the two, safe for concurrent link creation
//   - Link: a sender or receiver channel attached to one existing queue
//
// Opening a link verifies the target queue with a passive declare, so a
// missing entity or a permission problem is reported while the endpoint
// initializes rather than on first use.
package rabbitmq
