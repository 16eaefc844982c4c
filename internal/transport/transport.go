// Package transport owns the point-to-point link to one board device. It has
// no protocol knowledge: bytes go out, bytes come in. Implementations must be
// safe for concurrent use.
package transport

import (
	"context"
	"errors"
)

// Distinct connection failure reasons. The connection supervisor branches on
// these to decide whether a retry is worthwhile.
var (
	// ErrUnreachable means the target device could not be reached at all.
	ErrUnreachable = errors.New("transport: target unreachable")
	// ErrNegotiation means the capability exchange after connect failed.
	ErrNegotiation = errors.New("transport: capability negotiation failed")
	// ErrSubscribe means the notification subscription could not be enabled.
	ErrSubscribe = errors.New("transport: notification subscribe failed")
	// ErrNotReady means a send was attempted without an established link.
	ErrNotReady = errors.New("transport: link not ready")
	// ErrSend means the link was established but the write itself failed.
	ErrSend = errors.New("transport: send failed")
)

// Transport is the lowest-level link primitive. The connection supervisor
// drives Connect → Negotiate → Subscribe in order; any step may fail with its
// distinct error above.
//
// Sends are fire-and-forget: there is no per-message acknowledgment or retry
// at this layer. Liveness is the heartbeat watchdog's job.
type Transport interface {
	// Connect establishes the physical link to the target address.
	Connect(ctx context.Context, target string) error

	// Negotiate attempts to enlarge the link's message size beyond the
	// transport default, returning the size now in effect. Failure to get a
	// larger size falls back silently to the default; an error is returned
	// only when the exchange itself cannot run.
	Negotiate(ctx context.Context) (int, error)

	// Subscribe enables inbound notifications and starts delivery on the
	// Receive channel.
	Subscribe(ctx context.Context) error

	// Send queues one outbound message. Returns ErrNotReady when the link is
	// not established and ErrSend when the write fails on a live link.
	Send(data []byte) error

	// Receive returns the inbound message channel for the current connection.
	// The channel is closed when the connection drops.
	Receive() <-chan []byte

	// Done is closed when the current connection terminates for any reason.
	Done() <-chan struct{}

	// Disconnect tears the link down. Always succeeds and is idempotent.
	Disconnect()
}
