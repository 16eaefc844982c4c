// Package reconcile detects and resolves divergence between the controller's
// belief about game state and the values the physical board reports.
package reconcile

import "sync"

// PlayerState is one player's position and score.
type PlayerState struct {
	Position int
	Score    int
}

// Mirror is the controller's local belief of per-player state. Ownership
// rule: only the board orchestrator writes to it, in response to confirmed
// board events; the reconciler and everything else read.
type Mirror struct {
	mu      sync.RWMutex
	players map[int]PlayerState
}

// NewMirror returns an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{players: make(map[int]PlayerState)}
}

// Set records the local belief for one player.
func (m *Mirror) Set(playerID, position, score int) {
	m.mu.Lock()
	m.players[playerID] = PlayerState{Position: position, Score: score}
	m.mu.Unlock()
}

// Get returns one player's state and whether it is tracked.
func (m *Mirror) Get(playerID int) (PlayerState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.players[playerID]
	return st, ok
}

// Snapshot returns a copy of every tracked player's state.
func (m *Mirror) Snapshot() map[int]PlayerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]PlayerState, len(m.players))
	for id, st := range m.players {
		out[id] = st
	}
	return out
}

// Clear forgets all tracked players. Used by the trust-remote resolution: the
// mirror rebuilds from the next board-reported event.
func (m *Mirror) Clear() {
	m.mu.Lock()
	m.players = make(map[int]PlayerState)
	m.mu.Unlock()
}

// Len returns the number of tracked players.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}
