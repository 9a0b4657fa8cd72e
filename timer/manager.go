// File: timer/manager.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Manager is the TimerManager of spec.md §4.3: an ordered set of live
// timers behind a read/write lock, with front-insertion notification and
// monotonic-clock-rollback mass-expiry handling. The dispatch loop shape
// (recompute next wakeup, sleep, drain expired) is adapted from the
// teacher sibling's DelayManager.loop/calculateNextRun/processExpiredTasks,
// generalized from a single background goroutine with its own time.Timer
// into a pure, poller-driven query surface (NextTimerMs/ListExpired) that
// ioreactor.IOManager's idle loop calls directly instead of owning a
// loop of its own.
package timer

import (
	"container/heap"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/fiberio/internal/logx"
)

// Infinity is the sentinel NextTimerMs returns when the manager holds no
// live timers.
const Infinity = int64(math.MaxInt64)

const rollbackThresholdMs = int64(time.Hour / time.Millisecond)

func nowMs() int64 { return time.Now().UnixMilli() }

// Manager owns the live timer set. OnFrontInserted, when set, is called
// (with the manager's lock released) whenever a newly added timer
// becomes the earliest deadline while the manager was not already
// "tickled" — ioreactor.IOManager wires this to its self-pipe wake so a
// blocked poller wait is interrupted to pick up the new, earlier
// deadline (spec.md §4.3's on_timer_inserted_at_front).
type Manager struct {
	mu   sync.RWMutex
	heap timerHeap

	tickled        atomic.Bool
	previousWallMs int64
	haveObserved   bool

	// RollbackGuard enables the monotonic-clock-rollback guardrail: if
	// disabled, a backward clock jump is not treated specially (useful
	// for deterministic tests that fast-forward a virtual clock).
	RollbackGuard bool

	OnFrontInserted func()

	log *zap.SugaredLogger
}

// New constructs an empty Manager with RollbackGuard enabled.
func New() *Manager {
	return &Manager{
		heap:          make(timerHeap, 0),
		RollbackGuard: true,
		log:           logx.Named("timer"),
	}
}

// AddTimer schedules cb to run after delayMs, optionally recurring at
// that same period.
func (m *Manager) AddTimer(delayMs int64, cb func(), recurring bool) *Timer {
	return m.insert(nowMs()+delayMs, delayMs, recurring, cb)
}

// AddConditionTimer schedules cb to run after delayMs, but only if
// witness() still reports true at fire time; otherwise the callback is
// silently skipped. witness generalizes the "weak pointer upgrade"
// contract from spec.md §4.3 into an explicit Go predicate — the caller
// decides what "the witness is gone" means (a cleared atomic flag, a
// nilled-out pointer behind a mutex, etc.) rather than relying on a
// language-level weak reference.
func (m *Manager) AddConditionTimer(delayMs int64, cb func(), witness func() bool, recurring bool) *Timer {
	return m.insert(nowMs()+delayMs, delayMs, recurring, func() {
		if witness() {
			cb()
		}
	})
}

func (m *Manager) insert(deadlineMs, periodMs int64, recurring bool, cb func()) *Timer {
	t := newTimer(m, deadlineMs, periodMs, recurring, cb)

	m.mu.Lock()
	heap.Push(&m.heap, t)
	isFront := m.heap[0] == t
	notify := false
	if isFront && !m.tickled.Load() {
		m.tickled.Store(true)
		notify = true
	}
	m.mu.Unlock()

	if notify && m.OnFrontInserted != nil {
		m.OnFrontInserted()
	}
	return t
}

// NextTimerMs returns max(0, earliest_deadline - now), or Infinity if the
// manager holds no timers. Side effect: clears the tickled debounce flag
// (spec.md §4.3).
func (m *Manager) NextTimerMs() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.tickled.Store(false)
	if len(m.heap) == 0 {
		return Infinity
	}
	d := m.heap[0].deadlineMs - nowMs()
	if d < 0 {
		d = 0
	}
	return d
}

// HasTimer reports whether any live timer is currently registered.
func (m *Manager) HasTimer() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.heap) > 0
}

// ListExpired collects and returns the callbacks of every timer whose
// deadline has passed. Recurring timers are recomputed and re-inserted;
// one-shot timers are detached (callback cleared, cancelled marked). On
// a detected monotonic-clock rollback (now appears to have jumped
// backward by at least an hour), every live timer is treated as expired
// this pass — a guardrail against administrator clock changes, per
// spec.md §4.3 and §7.
func (m *Manager) ListExpired() []func() {
	now := nowMs()

	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.previousWallMs
	rollback := m.RollbackGuard && m.haveObserved && now < previous && now < previous-rollbackThresholdMs
	m.previousWallMs = now
	m.haveObserved = true

	if rollback {
		m.log.Warnw("monotonic clock rollback detected, expiring all timers", "now_ms", now, "previous_ms", previous)
		return m.expireAll(now)
	}
	return m.expireDue(now)
}

func (m *Manager) expireDue(now int64) []func() {
	var cbs []func()
	for len(m.heap) > 0 && m.heap[0].deadlineMs <= now {
		t := heap.Pop(&m.heap).(*Timer)
		if t.callback == nil {
			continue
		}
		cbs = append(cbs, t.callback)
		if t.recurring {
			t.deadlineMs = now + t.periodMs
			heap.Push(&m.heap, t)
		} else {
			t.callback = nil
			t.cancelled = true
		}
	}
	return cbs
}

func (m *Manager) expireAll(now int64) []func() {
	var cbs []func()
	kept := make(timerHeap, 0, len(m.heap))
	for _, t := range m.heap {
		if t.callback != nil {
			cbs = append(cbs, t.callback)
		}
		if t.recurring && t.callback != nil {
			t.deadlineMs = now + t.periodMs
			t.index = len(kept)
			kept = append(kept, t)
		} else {
			t.callback = nil
			t.cancelled = true
			t.index = -1
		}
	}
	m.heap = kept
	return cbs
}
