// Package link manages the board connection lifecycle: the supervisor drives
// the transport through connect, capability negotiation, and notification
// subscription, owns the reconnect policy, and runs the heartbeat watchdog
// that forces a reconnect on board silence.
package link

// State is the connection lifecycle position. Transitions move strictly
// forward on success; any failure or explicit disconnect returns to
// StateDisconnected. The supervisor is the only writer.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateNegotiating
	StateSubscribing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateNegotiating:
		return "negotiating_capabilities"
	case StateSubscribing:
		return "subscribing_notifications"
	case StateReady:
		return "ready"
	default:
		return "disconnected"
	}
}

// LostCause tags a ConnectionLost signal so downstream consumers can
// deduplicate by cause instead of suppressing call sites by hand.
type LostCause int

const (
	// LostOrganic is a plain physical disconnect (board power loss, radio
	// drop) detected by the transport.
	LostOrganic LostCause = iota
	// LostWatchdog is a forced teardown after heartbeat silence.
	LostWatchdog
	// LostManual is a user-initiated disconnect or shutdown.
	LostManual
)

func (c LostCause) String() string {
	switch c {
	case LostWatchdog:
		return "watchdog"
	case LostManual:
		return "manual"
	default:
		return "organic"
	}
}
