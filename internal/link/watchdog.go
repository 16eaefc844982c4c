package link

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultHeartbeatInterval is how often the watchdog checks for silence.
	DefaultHeartbeatInterval = 5 * time.Second
	// DefaultHeartbeatTimeout is the silence window after which the board is
	// presumed dead.
	DefaultHeartbeatTimeout = 15 * time.Second
)

// Watchdog verifies the board is alive. Any inbound event of any variant
// counts as a liveness signal. On silence beyond the timeout it fires
// onSilence exactly once and stops itself; the supervisor restarts it on the
// next Ready transition.
type Watchdog struct {
	log      *logrus.Entry
	interval time.Duration
	timeout  time.Duration

	onSilence func(elapsed time.Duration)

	mu       sync.Mutex
	lastSeen time.Time
	stop     chan struct{}
}

// NewWatchdog builds a stopped watchdog. Zero durations take the defaults.
func NewWatchdog(log *logrus.Logger, interval, timeout time.Duration, onSilence func(elapsed time.Duration)) *Watchdog {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	if timeout <= 0 {
		timeout = DefaultHeartbeatTimeout
	}
	return &Watchdog{
		log:       log.WithField("component", "watchdog"),
		interval:  interval,
		timeout:   timeout,
		onSilence: onSilence,
	}
}

// Start arms the watchdog. No-op if already running.
func (w *Watchdog) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		return
	}
	w.lastSeen = time.Now()
	w.stop = make(chan struct{})
	go w.run(w.stop)
	w.log.Debug("heartbeat monitoring started")
}

// Stop disarms the watchdog. Idempotent.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *Watchdog) stopLocked() {
	if w.stop == nil {
		return
	}
	close(w.stop)
	w.stop = nil
	w.log.Debug("heartbeat monitoring stopped")
}

// Touch records a liveness signal.
func (w *Watchdog) Touch() {
	w.mu.Lock()
	w.lastSeen = time.Now()
	w.mu.Unlock()
}

// SinceLastSignal returns the time since the last liveness signal.
func (w *Watchdog) SinceLastSignal() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return time.Since(w.lastSeen)
}

func (w *Watchdog) run(stop chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.mu.Lock()
			elapsed := time.Since(w.lastSeen)
			expired := elapsed > w.timeout
			if expired {
				// Fire once, then stop: the forced reconnect cycle brings a
				// fresh watchdog with it.
				w.stopLocked()
			}
			w.mu.Unlock()

			if expired {
				w.log.Warnf("board heartbeat lost (%s of silence)", elapsed.Round(time.Millisecond))
				w.onSilence(elapsed)
				return
			}
		}
	}
}
