package status

import (
	"sync"
	"time"
)

// Tracker holds the live status of every domain. All methods are safe
// for concurrent use; writers are the per-domain sync tasks and readers
// are the operator API.
type Tracker struct {
	mu      sync.RWMutex
	domains map[string]*DomainStatus
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{domains: make(map[string]*DomainStatus)}
}

// SetPhase records a phase transition, clearing any stale message when
// the domain moves to a healthy phase.
func (t *Tracker) SetPhase(domain string, phase Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.get(domain)
	st.Phase = phase
	if phase != PhaseFailed {
		st.Message = ""
	}
}

// SetFailed records a failure with its reason.
func (t *Tracker) SetFailed(domain, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.get(domain)
	st.Phase = PhaseFailed
	st.Message = message
}

// RecordApplied advances the visible cursor and counters after a batch
// of count events was applied and its cursor write persisted.
func (t *Tracker) RecordApplied(domain string, seq, count int64, recovered bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.get(domain)
	st.Cursor = seq
	st.Applied += count
	if recovered {
		st.Recovered += count
	}
	now := time.Now()
	st.LastAppliedAt = &now
	st.Halted = nil
}

// SetCursor records the cursor position without counting an apply, used
// at startup when the persisted cursor is first loaded.
func (t *Tracker) SetCursor(domain string, seq int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.get(domain).Cursor = seq
}

// SetHalted records the event blocking progress after a permanent
// rejection.
func (t *Tracker) SetHalted(domain string, seq int64, key, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.get(domain)
	st.Halted = &HaltedEvent{Seq: seq, Key: key, Reason: reason}
}

// Get returns a copy of one domain's status.
func (t *Tracker) Get(domain string) (DomainStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.domains[domain]
	if !ok {
		return DomainStatus{}, false
	}
	return copyStatus(st), true
}

// List returns a copy of every domain's status.
func (t *Tracker) List() []DomainStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]DomainStatus, 0, len(t.domains))
	for _, st := range t.domains {
		out = append(out, copyStatus(st))
	}
	return out
}

// get returns the mutable entry for domain, creating it on first use.
// Callers must hold the write lock.
func (t *Tracker) get(domain string) *DomainStatus {
	st, ok := t.domains[domain]
	if !ok {
		st = &DomainStatus{Domain: domain, Phase: PhaseStarting}
		t.domains[domain] = st
	}
	return st
}

func copyStatus(st *DomainStatus) DomainStatus {
	out := *st
	if st.Halted != nil {
		halted := *st.Halted
		out.Halted = &halted
	}
	if st.LastAppliedAt != nil {
		at := *st.LastAppliedAt
		out.LastAppliedAt = &at
	}
	return out
}
