package link

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lakshnarr/lastdrop-game-sub000/internal/protocol"
	"github.com/lakshnarr/lastdrop-game-sub000/internal/transport"
)

const (
	// DefaultMaxReconnectAttempts caps automatic retries before the terminal
	// user-facing choice.
	DefaultMaxReconnectAttempts = 3
	// DefaultReconnectDelay gives the transport time to settle after a drop
	// before redialing.
	DefaultReconnectDelay = 2 * time.Second
	// connectTimeout bounds one full connect sequence.
	connectTimeout = 10 * time.Second
)

// Callbacks are the supervisor's outbound signals. Nil callbacks are skipped.
// All callbacks run on supervisor goroutines and must not block.
type Callbacks struct {
	// OnStateChanged fires on every lifecycle transition.
	OnStateChanged func(State)
	// OnReady fires when the link reaches StateReady.
	OnReady func()
	// OnEvent delivers each decoded inbound event, in arrival order.
	OnEvent func(protocol.Event)
	// OnConnectionLost is the unified drop signal; consumers deduplicate by
	// cause. Fires once per underlying drop.
	OnConnectionLost func(LostCause)
	// OnConnectFailed reports a failed connect attempt with its transport
	// failure reason.
	OnConnectFailed func(error)
	// OnConnectionExhausted fires when the reconnect budget runs out. The
	// caller must resolve it to a user decision: retry now or continue in
	// degraded offline mode.
	OnConnectionExhausted func()
}

// Options tune the supervisor. Zero values take defaults.
type Options struct {
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	HeartbeatInterval    time.Duration
	HeartbeatTimeout     time.Duration
}

// Supervisor drives the transport through its lifecycle and owns the
// reconnection policy and the heartbeat watchdog.
type Supervisor struct {
	log *logrus.Entry
	tr  transport.Transport
	cb  Callbacks

	reconnectDelay time.Duration
	watchdog       *Watchdog

	mu              sync.Mutex
	state           State
	target          string
	budget          *ReconnectBudget
	forcedReconnect bool
	manual          bool
	gameActive      bool
	reconnectTimer  *time.Timer
	gen             int
}

// NewSupervisor wires a supervisor to a transport. The watchdog is created
// here and runs only while the link is Ready.
func NewSupervisor(log *logrus.Logger, tr transport.Transport, cb Callbacks, opts Options) *Supervisor {
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}

	s := &Supervisor{
		log:            log.WithField("component", "supervisor"),
		tr:             tr,
		cb:             cb,
		reconnectDelay: opts.ReconnectDelay,
		budget:         NewReconnectBudget(opts.MaxReconnectAttempts),
	}
	s.watchdog = NewWatchdog(log, opts.HeartbeatInterval, opts.HeartbeatTimeout, s.onHeartbeatSilence)
	return s
}

// StartConnect begins the connect sequence toward target. Any previous
// connection is torn down first.
func (s *Supervisor) StartConnect(target string) {
	s.mu.Lock()
	s.target = target
	s.manual = false
	s.cancelReconnectLocked()
	s.mu.Unlock()

	go s.connectSequence()
}

// Cancel aborts any in-flight connect or reconnect and tears the link down.
// Order matters for a race-free teardown: pending delayed tasks first, then
// the watchdog, then the transport.
func (s *Supervisor) Cancel() {
	s.mu.Lock()
	s.manual = true
	s.cancelReconnectLocked()
	s.mu.Unlock()

	s.watchdog.Stop()
	s.tr.Disconnect()
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsReady reports whether the link is usable.
func (s *Supervisor) IsReady() bool {
	return s.State() == StateReady
}

// SetGameActive tells the supervisor whether a game is in progress. Automatic
// reconnects and heartbeat-forced reconnects only happen during a game.
func (s *Supervisor) SetGameActive(active bool) {
	s.mu.Lock()
	s.gameActive = active
	s.mu.Unlock()
}

// RetryNow resets the exhausted budget and reconnects. This is the "retry"
// arm of the terminal choice surfaced by OnConnectionExhausted.
func (s *Supervisor) RetryNow() {
	s.mu.Lock()
	s.budget.Reset()
	target := s.target
	s.mu.Unlock()
	s.StartConnect(target)
}

// SendCommand encodes and transmits one command. Fire-and-forget at this
// layer: no per-command acknowledgment timeout exists.
func (s *Supervisor) SendCommand(cmd protocol.Command) error {
	if !s.IsReady() {
		return transport.ErrNotReady
	}
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	return s.tr.Send(data)
}

// BudgetAttempts exposes the spent reconnect attempts for diagnostics.
func (s *Supervisor) BudgetAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget.Attempts()
}

func (s *Supervisor) setState(next State) {
	s.mu.Lock()
	if s.state == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.mu.Unlock()

	s.log.Infof("link state: %s", next)
	if s.cb.OnStateChanged != nil {
		s.cb.OnStateChanged(next)
	}
}

// connectSequence walks the forward-only lifecycle. Any step failure returns
// the state machine to Disconnected and routes through the retry policy.
func (s *Supervisor) connectSequence() {
	s.mu.Lock()
	if s.manual {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	target := s.target
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	s.setState(StateConnecting)
	if err := s.tr.Connect(ctx, target); err != nil {
		s.connectFailed(err)
		return
	}

	s.setState(StateNegotiating)
	if _, err := s.tr.Negotiate(ctx); err != nil {
		s.tr.Disconnect()
		s.connectFailed(err)
		return
	}

	s.setState(StateSubscribing)
	if err := s.tr.Subscribe(ctx); err != nil {
		s.tr.Disconnect()
		s.connectFailed(err)
		return
	}

	s.mu.Lock()
	s.budget.Reset()
	s.forcedReconnect = false
	s.mu.Unlock()

	recv := s.tr.Receive()
	done := s.tr.Done()

	s.setState(StateReady)
	s.watchdog.Start()
	if s.cb.OnReady != nil {
		s.cb.OnReady()
	}

	go s.pump(recv, done, gen)
}

func (s *Supervisor) connectFailed(err error) {
	s.log.Warnf("connect failed: %v", err)
	s.setState(StateDisconnected)
	if s.cb.OnConnectFailed != nil {
		s.cb.OnConnectFailed(err)
	}
	s.scheduleRetry()
}

// pump is the single consumer of the transport's inbound queue. It decodes
// each frame and hands typed events downstream; malformed frames are logged
// and dropped without crashing the pipeline.
func (s *Supervisor) pump(recv <-chan []byte, done <-chan struct{}, gen int) {
	for data := range recv {
		// Bytes from the board prove it is alive, well-formed or not.
		s.watchdog.Touch()

		ev, err := protocol.DecodeEvent(data)
		if err != nil {
			s.log.Warnf("dropping malformed event: %v", err)
			continue
		}
		if s.cb.OnEvent != nil {
			s.cb.OnEvent(ev)
		}
	}
	<-done

	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()
	if stale {
		return
	}
	s.handleDrop()
}

// handleDrop processes the end of a Ready connection. The watchdog's forced
// path and the organic path share this single exit so the user never sees two
// "connection lost" alerts for one underlying failure.
func (s *Supervisor) handleDrop() {
	s.watchdog.Stop()

	s.mu.Lock()
	cause := LostOrganic
	switch {
	case s.manual:
		cause = LostManual
	case s.forcedReconnect:
		cause = LostWatchdog
	}
	s.mu.Unlock()

	s.setState(StateDisconnected)
	s.log.Infof("connection lost (cause: %s)", cause)
	if s.cb.OnConnectionLost != nil {
		s.cb.OnConnectionLost(cause)
	}

	if cause == LostManual {
		return
	}
	s.scheduleRetry()
}

// scheduleRetry spends the reconnect budget and arms the next attempt. The
// watchdog path reconnects immediately on a fresh budget; the organic path
// waits out the settle delay. Outside an active game nothing is retried.
func (s *Supervisor) scheduleRetry() {
	s.mu.Lock()

	if s.manual || !s.gameActive {
		s.mu.Unlock()
		return
	}

	if !s.budget.Spend() {
		s.forcedReconnect = false
		exhausted := s.cb.OnConnectionExhausted
		s.mu.Unlock()

		s.log.Warn("reconnect budget exhausted")
		if exhausted != nil {
			exhausted()
		}
		return
	}

	delay := s.reconnectDelay
	if s.forcedReconnect {
		// Only the first forced attempt redials immediately; if it fails,
		// the remaining budget settles like any organic retry.
		delay = 0
		s.forcedReconnect = false
	}
	attempts, max := s.budget.Attempts(), s.budget.Max()

	s.cancelReconnectLocked()
	s.reconnectTimer = time.AfterFunc(delay, s.connectSequence)
	s.mu.Unlock()

	s.log.Infof("reconnect attempt %d/%d in %s", attempts, max, delay)
}

func (s *Supervisor) cancelReconnectLocked() {
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
}

// onHeartbeatSilence is the watchdog's silence handler: mark the forced
// reconnect so the organic-disconnect path stays quiet, grant a fresh retry
// budget, and tear the connection down. The pump notices and reconnects.
func (s *Supervisor) onHeartbeatSilence(elapsed time.Duration) {
	s.mu.Lock()
	if s.manual || s.state != StateReady {
		s.mu.Unlock()
		return
	}
	if !s.gameActive {
		// No game in progress: silence is unremarkable, keep watching.
		s.mu.Unlock()
		s.watchdog.Touch()
		s.watchdog.Start()
		return
	}
	s.forcedReconnect = true
	s.budget.Reset()
	s.mu.Unlock()

	s.log.Warnf("forcing reconnect after %s of board silence", elapsed.Round(time.Millisecond))
	s.tr.Disconnect()
}
