// File: timer/timer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Timer and its backing container/heap ordering are adapted from the
// delay-queue shape in the teacher's task-runner sibling package
// (core/delay_manager.go's DelayedTask/DelayedTaskHeap): a heap ordered
// by deadline, with a stable index maintained by Swap for O(log n)
// cancel/refresh in place of DelayedTask's simpler "peek-and-pop" use.
package timer

import "sync/atomic"

// Timer is a single scheduled callback: either one-shot or recurring,
// ordered in its Manager by (deadlineMs, id). Manager.Add* returns a
// *Timer as a live handle; Cancel/Refresh/Reset mutate it in place.
type Timer struct {
	id         uint64
	deadlineMs int64
	periodMs   int64
	recurring  bool
	callback   func()
	manager    *Manager

	index     int // heap.Interface bookkeeping; -1 when not in the heap
	cancelled bool
}

var nextTimerID uint64

func newTimer(m *Manager, deadlineMs, periodMs int64, recurring bool, cb func()) *Timer {
	return &Timer{
		id:         atomic.AddUint64(&nextTimerID, 1),
		deadlineMs: deadlineMs,
		periodMs:   periodMs,
		recurring:  recurring,
		callback:   cb,
		manager:    m,
		index:      -1,
	}
}

// Cancel removes the timer from its manager's live set. Idempotent: a
// cancelled, expired-and-detached, or already-cancelled timer no-ops.
// Matches the Timer invariant in spec.md §3: a cancelled timer has
// callback = null and is not present in the manager's set.
func (t *Timer) Cancel() {
	m := t.manager
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.cancelled {
		return
	}
	if t.index >= 0 {
		m.heap.removeAt(t.index)
	}
	t.callback = nil
	t.cancelled = true
}

// Refresh recomputes this timer's deadline as now + period, re-arming it
// for another firing at the original cadence.
func (t *Timer) Refresh() {
	m := t.manager
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.cancelled || t.index < 0 {
		return
	}
	t.deadlineMs = nowMs() + t.periodMs
	m.heap.fixAt(t.index)
}

// Reset rearms the timer with a new period. If fromNow, the new deadline
// is now + ms; otherwise the original phase is preserved:
// deadline = (old_deadline - old_period) + new_ms, per spec.md §4.3.
func (t *Timer) Reset(ms int64, fromNow bool) {
	m := t.manager
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.cancelled || t.index < 0 {
		return
	}
	if fromNow {
		t.deadlineMs = nowMs() + ms
	} else {
		t.deadlineMs = (t.deadlineMs - t.periodMs) + ms
	}
	t.periodMs = ms
	m.heap.fixAt(t.index)
}

// DeadlineMs returns the timer's current absolute deadline.
func (t *Timer) DeadlineMs() int64 {
	m := t.manager
	m.mu.RLock()
	defer m.mu.RUnlock()
	return t.deadlineMs
}

// Cancelled reports whether the timer has been cancelled or has fired as
// a non-recurring timer.
func (t *Timer) Cancelled() bool {
	m := t.manager
	m.mu.RLock()
	defer m.mu.RUnlock()
	return t.cancelled
}
