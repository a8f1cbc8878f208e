package bus

import "context"

// Sender is an endpoint attached to an entity for publishing.
type Sender struct {
	endpoint
}

func newSender(addr resolvedAddress, cfg factoryConfig) *Sender {
	return &Sender{endpoint: endpoint{kind: KindSender, addr: addr, factCfg: cfg}}
}

func (s *Sender) openLink(ctx context.Context, f *MessagingFactory) (link, error) {
	return f.openSender(ctx, s.addr.entityPath)
}
