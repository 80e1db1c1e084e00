package marionette

import "log"

// TransitionID identifies a scheduled transition. The zero ID is never
// issued.
type TransitionID int64

type pendingTransition struct {
	id       TransitionID
	deadline float64
	onFire   func()
	onCancel func()
}

// Scheduler runs delayed callbacks on the game tick. Time advances only
// through Update, so tests drive it with synthetic deltas and there is no
// goroutine to race with. A cancelled transition's fire action never runs;
// an uncancelled one still re-checks the guard at fire time, closing the
// race between scheduling and a skip request.
type Scheduler struct {
	// guard reports whether firing may proceed. A nil guard always allows.
	guard   func() bool
	clock   float64
	nextID  TransitionID
	pending []pendingTransition
}

// NewScheduler creates a Scheduler. guard is consulted when scheduling and
// again when firing; return false to suppress both.
func NewScheduler(guard func() bool) *Scheduler {
	return &Scheduler{guard: guard, nextID: 1}
}

// After schedules onFire to run once delay seconds of update time have
// accumulated. onCancel runs if the transition is cancelled instead. When
// the guard already forbids scheduling, After returns ok=false and neither
// callback is registered or invoked.
func (s *Scheduler) After(delay float64, onFire, onCancel func()) (TransitionID, bool) {
	if s.guard != nil && !s.guard() {
		return 0, false
	}
	id := s.nextID
	s.nextID++
	s.pending = append(s.pending, pendingTransition{
		id:       id,
		deadline: s.clock + delay,
		onFire:   onFire,
		onCancel: onCancel,
	})
	return id, true
}

// Cancel removes a pending transition and invokes its cancel callback.
// It reports whether the transition was still pending.
func (s *Scheduler) Cancel(id TransitionID) bool {
	for i := range s.pending {
		if s.pending[i].id != id {
			continue
		}
		t := s.pending[i]
		s.pending = append(s.pending[:i], s.pending[i+1:]...)
		if t.onCancel != nil {
			t.onCancel()
		}
		return true
	}
	return false
}

// CancelAll synchronously cancels every pending transition in scheduling
// order, invoking each cancel callback.
func (s *Scheduler) CancelAll() {
	pending := s.pending
	s.pending = nil
	for _, t := range pending {
		if t.onCancel != nil {
			t.onCancel()
		}
	}
}

// PendingCount returns the number of scheduled transitions.
func (s *Scheduler) PendingCount() int {
	return len(s.pending)
}

// Update advances the scheduler clock and fires due transitions one at a
// time. Each transition stays in the pending list until the instant it
// fires, so a fire action that cancels everything (the skip path) still
// reaches transitions that were due this same tick. Transitions scheduled
// during this Update wait for the next one.
func (s *Scheduler) Update(dt float64) {
	s.clock += dt
	cutoff := s.nextID

	for {
		idx := -1
		for i := range s.pending {
			if s.pending[i].id < cutoff && s.pending[i].deadline <= s.clock {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		t := s.pending[idx]
		s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
		if s.guard != nil && !s.guard() {
			// A skip raced this transition between scheduling and firing.
			if Verbose {
				log.Printf("[marionette] transition %d suppressed by skip", t.id)
			}
			continue
		}
		if t.onFire != nil {
			t.onFire()
		}
	}
}
