package reconcile

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultCheckInterval is the cadence of consistency checks while a game
	// is active.
	DefaultCheckInterval = 10 * time.Second
	// DefaultQuietPeriod is how long without any board-reported update earns
	// a warning. Silence is logged, never counted as a mismatch: board
	// liveness is the watchdog's concern.
	DefaultQuietPeriod = 30 * time.Second
	// DefaultFailureThreshold is the number of consecutive mismatched checks
	// before a reconciliation failure is raised.
	DefaultFailureThreshold = 3
)

// Resolution is the user's choice when reconciliation fails.
type Resolution int

const (
	// TrustLocal keeps the controller's mirror as the source of truth; the
	// board is expected to be told to adopt it via a Reset/Config command.
	TrustLocal Resolution = iota
	// TrustRemote discards the local mirror; it rebuilds from the next
	// board-reported event.
	TrustRemote
)

// SyncResult is the outcome of one consistency check. Transient: produced per
// check, never persisted.
type SyncResult struct {
	InSync             bool
	PositionMismatches []string
	ScoreMismatches    []string
}

// Options tune the reconciler. Zero values take defaults.
type Options struct {
	CheckInterval    time.Duration
	QuietPeriod      time.Duration
	FailureThreshold int
}

// Reconciler periodically compares the local mirror against the most recently
// board-reported values and raises a failure after repeated divergence.
// Nothing is ever auto-resolved: crossing the threshold always ends in an
// explicit user choice.
type Reconciler struct {
	log    *logrus.Entry
	mirror *Mirror

	interval  time.Duration
	quiet     time.Duration
	threshold int

	onFailure func(message string)

	mu         sync.Mutex
	reported   map[int]PlayerState
	lastUpdate time.Time
	failures   int
	stop       chan struct{}
}

// New builds a stopped reconciler reading from mirror.
func New(log *logrus.Logger, mirror *Mirror, onFailure func(message string), opts Options) *Reconciler {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = DefaultQuietPeriod
	}
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = DefaultFailureThreshold
	}
	return &Reconciler{
		log:       log.WithField("component", "reconciler"),
		mirror:    mirror,
		interval:  opts.CheckInterval,
		quiet:     opts.QuietPeriod,
		threshold: opts.FailureThreshold,
		onFailure: onFailure,
		reported:  make(map[int]PlayerState),
	}
}

// Start begins periodic checking. No-op if already running.
func (r *Reconciler) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return
	}
	r.lastUpdate = time.Now()
	r.stop = make(chan struct{})
	go r.run(r.stop)
	r.log.Debug("state sync monitoring started")
}

// Stop halts periodic checking. Idempotent.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop == nil {
		return
	}
	close(r.stop)
	r.stop = nil
	r.log.Debug("state sync monitoring stopped")
}

// ObserveBoard records a board-reported position/score for one player.
func (r *Reconciler) ObserveBoard(playerID, position, score int) {
	r.mu.Lock()
	r.reported[playerID] = PlayerState{Position: position, Score: score}
	r.lastUpdate = time.Now()
	r.mu.Unlock()
}

// Check runs one consistency comparison. Equality is per-field exact match:
// positions and scores are discrete integers, there is no tolerance band. A
// mismatched run increments the consecutive-failure counter; a clean run
// resets it.
func (r *Reconciler) Check() SyncResult {
	local := r.mirror.Snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()

	var res SyncResult
	ids := make([]int, 0, len(local))
	for id := range local {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		want := local[id]
		got, ok := r.reported[id]
		if !ok {
			// The board has not mentioned this player yet; nothing to compare.
			continue
		}
		if got.Position != want.Position {
			res.PositionMismatches = append(res.PositionMismatches,
				fmt.Sprintf("player %d: local=%d board=%d", id, want.Position, got.Position))
		}
		if got.Score != want.Score {
			res.ScoreMismatches = append(res.ScoreMismatches,
				fmt.Sprintf("player %d: local=%d board=%d", id, want.Score, got.Score))
		}
	}

	res.InSync = len(res.PositionMismatches) == 0 && len(res.ScoreMismatches) == 0
	if res.InSync {
		r.failures = 0
	} else {
		r.failures++
	}
	return res
}

// Failures returns the consecutive mismatch count.
func (r *Reconciler) Failures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures
}

// Resolve applies the user's choice after a reconciliation failure and
// returns a description of what happened.
func (r *Reconciler) Resolve(choice Resolution) string {
	r.mu.Lock()
	r.failures = 0
	r.mu.Unlock()

	switch choice {
	case TrustRemote:
		r.mirror.Clear()
		r.log.Info("reconciliation resolved: board state adopted, mirror cleared")
		return "board state adopted as source of truth"
	default:
		r.log.Info("reconciliation resolved: local state kept as source of truth")
		return "local state kept as source of truth"
	}
}

func (r *Reconciler) run(stop chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Reconciler) tick() {
	r.mu.Lock()
	sinceUpdate := time.Since(r.lastUpdate)
	r.mu.Unlock()

	if sinceUpdate > r.quiet {
		r.log.Warnf("no board state updates for %s", sinceUpdate.Round(time.Second))
	}

	res := r.Check()
	if res.InSync {
		return
	}

	r.mu.Lock()
	crossed := r.failures >= r.threshold
	failures := r.failures
	if crossed {
		// Reset after alerting so the next alert needs a fresh run of
		// consecutive failures.
		r.failures = 0
	}
	r.mu.Unlock()

	details := strings.Join(append(res.PositionMismatches, res.ScoreMismatches...), "; ")
	r.log.Warnf("state desync detected (%d consecutive): %s", failures, details)

	if crossed && r.onFailure != nil {
		r.onFailure(fmt.Sprintf("%d consecutive sync failures: %s", failures, details))
	}
}
