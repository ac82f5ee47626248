package p2p

import (
	"context"

	"github.com/zmlAEQ/godtoss-node/internal/p2p/wire"
)

// Transport is the minimal gossip abstraction the node uses for GodTossing
// contributions. The libp2p+gossipsub implementation lives behind the 'p2p'
// build tag.
type Transport interface {
	// Start brings up the network stack and subscriptions.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the network stack and subscriptions.
	Stop(ctx context.Context) error

	// BroadcastSsc publishes a contribution to the SSC topic.
	BroadcastSsc(ctx context.Context, msg wire.Ssc) error
	// OnSsc registers a handler invoked on each inbound contribution.
	OnSsc(fn func(wire.Ssc))
}

// NoopTransport is the stub used when P2P is disabled. It satisfies the
// interface without performing any network I/O.
type NoopTransport struct {
	onSsc func(wire.Ssc)
}

func (n *NoopTransport) Start(_ context.Context) error                  { return nil }
func (n *NoopTransport) Stop(_ context.Context) error                   { return nil }
func (n *NoopTransport) BroadcastSsc(_ context.Context, _ wire.Ssc) error { return nil }
func (n *NoopTransport) OnSsc(fn func(wire.Ssc))                        { n.onSsc = fn }
