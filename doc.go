// Package bus creates ready-to-use messaging endpoints on a RabbitMQ broker.
//
// Three endpoint kinds are supported:
//   - Sender: attached to an entity for publishing
//   - Receiver: attached to an entity for consumption, in PeekLock or ReceiveAndDelete mode
//   - Session: a receiver bound to one session of an entity
//
// Every kind is addressed in one of three ways, built with [ConnectionString],
// [ConnectionStringBuilder] or [EntityPath]. The first two dial a private
// connection owned by the endpoint; the third reuses a shared [MessagingFactory].
//
// Each kind has a blocking entry point and a non-blocking one returning a
// [Pending] result:
//
//	sender, err := bus.CreateSender(ctx, bus.ConnectionString(cs))
//
//	pending, err := bus.CreateReceiverAsync(bus.EntityPath(factory, "orders"),
//		bus.WithReceiveMode(bus.ReceiveAndDelete))
//	if err != nil {
//		return err // argument or connection string problem
//	}
//	receiver, err := pending.Wait(ctx)
//
// A returned endpoint is always initialized. Failures are reported with four
// error types: [ArgumentError] and [DescriptorFormatError] before any work
// starts, [InitializationError] when the broker refuses the endpoint, and
// [InterruptionError] when a blocking caller's context ends first.
package bus
