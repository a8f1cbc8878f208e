package bus

import "context"

// Receiver is an endpoint attached to an entity for consumption.
type Receiver struct {
	endpoint
	receive ReceiveConfig
}

func newReceiver(addr resolvedAddress, rc ReceiveConfig, cfg factoryConfig) *Receiver {
	rc.SessionID = ""
	return &Receiver{
		endpoint: endpoint{kind: KindReceiver, addr: addr, factCfg: cfg},
		receive:  rc,
	}
}

// ReceiveMode returns the mode the receiver settles messages in
func (r *Receiver) ReceiveMode() ReceiveMode {
	return r.receive.Mode
}

// PrefetchCount returns how many unsettled messages the receiver may hold
func (r *Receiver) PrefetchCount() int {
	return r.receive.PrefetchCount
}

func (r *Receiver) openLink(ctx context.Context, f *MessagingFactory) (link, error) {
	return f.openReceiver(ctx, r.addr.entityPath, r.receive)
}
