package link

// ReconnectBudget counts reconnect attempts against a cap. The supervisor is
// the sole owner; no other component reads or writes it directly.
type ReconnectBudget struct {
	attempts int
	max      int
}

// NewReconnectBudget returns a budget allowing max attempts before the
// terminal user-facing choice.
func NewReconnectBudget(max int) *ReconnectBudget {
	return &ReconnectBudget{max: max}
}

// Spend records one attempt and reports whether it was within budget.
func (b *ReconnectBudget) Spend() bool {
	if b.attempts >= b.max {
		return false
	}
	b.attempts++
	return true
}

// Exhausted reports whether no attempts remain.
func (b *ReconnectBudget) Exhausted() bool {
	return b.attempts >= b.max
}

// Reset returns the budget to zero spent attempts. Called exactly once per
// successful Ready transition, and by the watchdog's forced-reconnect path,
// which is an independent failure class deserving a fresh budget.
func (b *ReconnectBudget) Reset() {
	b.attempts = 0
}

// Attempts returns the attempts spent since the last reset.
func (b *ReconnectBudget) Attempts() int {
	return b.attempts
}

// Max returns the attempt cap.
func (b *ReconnectBudget) Max() int {
	return b.max
}
