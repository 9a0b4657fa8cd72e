// File: ioreactor/manager.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Manager is the IOManager of spec.md §4.4: a Scheduler plus a
// TimerManager plus one readiness poller and an fd-indexed FdContext
// vector, wired together through the scheduler.Hooks capability
// interface instead of the teacher's virtual-dispatch override chain.
// Its idle step blocks in the poller bounded by the next timer deadline
// (5s ceiling), drains expired timers back into the scheduler, and
// dispatches ready events — directly adapting the teacher's
// reactor.EventReactor usage (Register/Wait/Close) into the one-shot,
// two-direction dispatch model FdContext requires.
package ioreactor

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/fiberio/fiber"
	"github.com/momentics/fiberio/internal/fault"
	"github.com/momentics/fiberio/internal/logx"
	"github.com/momentics/fiberio/scheduler"
	"github.com/momentics/fiberio/timer"
)

// PollObserver is an optional sink for how long each idle-loop iteration
// blocked in the poller. Kept as a tiny local interface rather than an
// import of the metrics package, which itself depends on api, which
// depends back on ioreactor for the IOManager contract — facade wires a
// metrics.Exporter-backed adapter in after construction.
type PollObserver interface {
	ObservePollDuration(d time.Duration)
}

const (
	maxReadyEvents = 256
	maxIdleWaitMs  = 5000
)

var currentIOManager fiber.Slot[*Manager]

// Current returns the IOManager whose idle fiber is running on the
// calling goroutine, or nil — current_iomanager() from spec.md §6.
// Fiber.Owner can't carry this one the way scheduler.Current() does
// (worker.go only knows the embedded *scheduler.Scheduler, never the
// *Manager wrapping it), so RunIdleStep binds this slot directly instead.
func Current() *Manager {
	m, _ := currentIOManager.Get()
	return m
}

// Manager embeds *scheduler.Scheduler: every Scheduler method (Schedule,
// Start, Stop, ActiveCount, ...) is available directly on a *Manager,
// matching spec.md §4.4's "IOManager extends Scheduler and TimerManager".
type Manager struct {
	*scheduler.Scheduler
	Timers *timer.Manager

	poller       Poller
	pipeR, pipeW int

	fdMu       sync.RWMutex
	fdContexts []*FdContext

	pendingEventCount atomic.Int64

	// Observer, if set, is notified of each poller.Wait call's duration.
	Observer PollObserver

	log *zap.SugaredLogger
}

// New constructs an IOManager: creates the platform poller, a
// non-blocking self-pipe registered for edge-triggered read readiness,
// and pre-sizes the FdContext vector to 32 (spec.md §4.4's
// "Construction"). The returned Manager is not yet started — call Start
// to spawn its workers.
func New(threadCount int, useCaller bool, name string) (*Manager, error) {
	poller, err := newPoller()
	if err != nil {
		return nil, err
	}

	r, w, err := newSelfPipe()
	if err != nil {
		poller.Close()
		return nil, err
	}

	if err := poller.Add(r, Read); err != nil {
		poller.Close()
		closeFd(r)
		closeFd(w)
		return nil, err
	}

	m := &Manager{
		Scheduler:  scheduler.New(threadCount, useCaller, name),
		Timers:     timer.New(),
		poller:     poller,
		pipeR:      r,
		pipeW:      w,
		fdContexts: make([]*FdContext, 32),
		log:        logx.Named("ioreactor"),
	}
	m.Scheduler.Hooks = m
	m.Timers.OnFrontInserted = m.WakeOneWorker
	return m, nil
}

// Close releases the poller and the self-pipe. Call after Stop.
func (m *Manager) Close() error {
	closeFd(m.pipeR)
	closeFd(m.pipeW)
	return m.poller.Close()
}

// PendingEventCount returns the number of currently armed (fd, direction)
// registrations — the Σ popcount(events) invariant of spec.md §4.4.
func (m *Manager) PendingEventCount() int64 { return m.pendingEventCount.Load() }

// AddEvent registers fd for dir (Read or Write), in edge-triggered mode,
// waking on the supplied callback — or, if cb is nil, on the currently
// running fiber, which must be in state Running (spec.md §4.4 step 4).
// Registering a direction that is already armed for fd is a fatal
// programming error, not a recoverable one (spec.md §4.4 step 2).
func (m *Manager) AddEvent(fd int, dir EventMask, cb func()) error {
	ctx := m.ctxFor(fd)
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	fault.Assert(ctx.events&dir == 0, "duplicate event registration", "fd", fd, "dir", dir)

	union := ctx.events | dir
	var err error
	if ctx.events == 0 {
		err = m.poller.Add(fd, union)
	} else {
		err = m.poller.Modify(fd, union)
	}
	if err != nil {
		m.log.Errorw("poller registration failed", "fd", fd, "dir", dir, "err", err)
		return err
	}

	m.pendingEventCount.Add(1)
	ctx.events = union
	ec := ctx.ctxFor(dir)
	ec.scheduler = scheduler.Current()
	if ec.scheduler == nil {
		// add_event called from outside any fiber (e.g. setup code
		// before the scheduler loop is running, or directly from a
		// plain goroutine): fall back to this IOManager's own
		// scheduler rather than leaving a nil event-context behind.
		ec.scheduler = m.Scheduler
	}
	if cb != nil {
		ec.cb = cb
	} else {
		f := fiber.Current()
		fault.Assert(f != nil && f.State() == fiber.Running, "add_event with no callback requires a running fiber")
		ec.fiber = f
	}
	return nil
}

// DelEvent clears dir's registration on fd without invoking its stored
// callback or fiber (spec.md §4.4's del_event).
func (m *Manager) DelEvent(fd int, dir EventMask) bool {
	ctx := m.ctxFor(fd)
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.events&dir == 0 {
		return false
	}
	ctx.events &^= dir
	*ctx.ctxFor(dir) = eventContext{}
	m.reprogram(ctx)
	m.pendingEventCount.Add(-1)
	return true
}

// CancelEvent is DelEvent but fires the registered waiter exactly once
// before discarding it (spec.md §4.4's cancel_event).
func (m *Manager) CancelEvent(fd int, dir EventMask) bool {
	ctx := m.ctxFor(fd)
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.events&dir == 0 {
		return false
	}
	ctx.triggerLocked(dir)
	m.reprogram(ctx)
	m.pendingEventCount.Add(-1)
	return true
}

// CancelAll removes fd from the poller entirely and fires every
// registered direction exactly once (spec.md §4.4's cancel_all).
func (m *Manager) CancelAll(fd int) bool {
	ctx := m.ctxFor(fd)
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.events == 0 {
		return false
	}
	if err := m.poller.Del(fd); err != nil {
		m.log.Warnw("poller del failed", "fd", fd, "err", err)
	}
	if ctx.events&Read != 0 {
		ctx.triggerLocked(Read)
		m.pendingEventCount.Add(-1)
	}
	if ctx.events&Write != 0 {
		ctx.triggerLocked(Write)
		m.pendingEventCount.Add(-1)
	}
	return true
}

// reprogram reflects ctx.events back onto the poller: MODIFY with the
// remaining bits, or DELETE once none remain. Caller holds ctx.mu.
func (m *Manager) reprogram(ctx *FdContext) {
	var err error
	if ctx.events == 0 {
		err = m.poller.Del(ctx.fd)
	} else {
		err = m.poller.Modify(ctx.fd, ctx.events)
	}
	if err != nil {
		m.log.Warnw("poller reprogram failed", "fd", ctx.fd, "err", err)
	}
}

// ctxFor returns (lazily creating) the FdContext for fd, growing the
// vector by 1.5x when needed.
func (m *Manager) ctxFor(fd int) *FdContext {
	m.fdMu.RLock()
	if fd < len(m.fdContexts) && m.fdContexts[fd] != nil {
		c := m.fdContexts[fd]
		m.fdMu.RUnlock()
		return c
	}
	m.fdMu.RUnlock()

	m.fdMu.Lock()
	defer m.fdMu.Unlock()
	m.growLocked(fd)
	if m.fdContexts[fd] == nil {
		m.fdContexts[fd] = &FdContext{fd: fd}
	}
	return m.fdContexts[fd]
}

func (m *Manager) lookupCtx(fd int) *FdContext {
	m.fdMu.RLock()
	defer m.fdMu.RUnlock()
	if fd < 0 || fd >= len(m.fdContexts) {
		return nil
	}
	return m.fdContexts[fd]
}

func (m *Manager) growLocked(fd int) {
	if fd < len(m.fdContexts) {
		return
	}
	newLen := len(m.fdContexts)
	if newLen == 0 {
		newLen = 32
	}
	for newLen <= fd {
		newLen = newLen + newLen/2 + 1
	}
	grown := make([]*FdContext, newLen)
	copy(grown, m.fdContexts)
	m.fdContexts = grown
}

// WakeOneWorker is tickle() from spec.md §4.2/§4.4: write one byte to the
// self-pipe, but only when a worker is actually parked idle (an
// optimization — writing unconditionally would still be correct, just
// wasteful).
func (m *Manager) WakeOneWorker() {
	if m.Scheduler.HasIdleThreads() {
		if err := writeByte(m.pipeW); err != nil {
			m.log.Warnw("self-pipe tickle write failed", "err", err)
		}
	}
}

// Stopping overrides Scheduler.Stopping with the IOManager's stronger
// quiescence condition: no pending timers, no pending I/O registrations,
// and the base scheduler condition all at once (spec.md §4.4).
func (m *Manager) Stopping() bool {
	return m.Timers.NextTimerMs() == timer.Infinity &&
		m.pendingEventCount.Load() == 0 &&
		m.Scheduler.Stopping()
}

// RunIdleStep is one iteration of spec.md §4.4's idle-loop body: wait in
// the poller bounded by the next timer deadline (5s ceiling), drain
// expired timers back into the scheduler, and dispatch every ready
// event. The outer looping and termination check live in the worker's
// generic idle() (scheduler/worker.go), which consults Hooks.Stopping
// between calls — so nextDeadlineMs is ignored here in favor of this
// Manager's own Timers handle.
func (m *Manager) RunIdleStep(_ int64) {
	// The idle fiber's goroutine is dedicated to this worker for the
	// Manager's lifetime; binding current_iomanager here (rather than
	// through Fiber.Owner, which worker.go sets to the embedded
	// *scheduler.Scheduler) gives ioreactor.Current() the same O(1)
	// goroutine-local lookup scheduler.Current() uses.
	currentIOManager.Set(m)
	defer fiber.Yield() // spec.md §4.4's idle loop: return control to dispatch after each step

	waitMs := m.Timers.NextTimerMs()
	if waitMs > maxIdleWaitMs {
		waitMs = maxIdleWaitMs
	}

	events := make([]ReadyEvent, maxReadyEvents)
	waitStart := time.Now()
	n, err := m.poller.Wait(int(waitMs), events)
	if m.Observer != nil {
		m.Observer.ObservePollDuration(time.Since(waitStart))
	}
	if err != nil {
		if err == errInterrupted {
			return
		}
		m.log.Errorw("poller wait failed", "err", err)
		return
	}

	for _, cb := range m.Timers.ListExpired() {
		m.Scheduler.ScheduleFunc(scheduler.AnyThread, cb)
	}

	for i := 0; i < n; i++ {
		ev := events[i]
		if ev.Fd == m.pipeR {
			drainNonblocking(m.pipeR)
			continue
		}
		if ctx := m.lookupCtx(ev.Fd); ctx != nil {
			m.dispatchReady(ctx, ev.Events)
		}
	}
}

// dispatchReady implements the per-event body of spec.md §4.4's idle
// loop: synthesize ERR/HUP into both registered directions, intersect
// with what is actually armed, reprogram the poller for what remains,
// and trigger each real direction exactly once.
func (m *Manager) dispatchReady(ctx *FdContext, reported EventMask) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if reported&(Err|Hup) != 0 {
		reported |= (Read | Write) & ctx.events
	}
	real := reported & ctx.events
	if real == 0 {
		return
	}

	if real&Read != 0 {
		ctx.triggerLocked(Read)
		m.pendingEventCount.Add(-1)
	}
	if real&Write != 0 {
		ctx.triggerLocked(Write)
		m.pendingEventCount.Add(-1)
	}
	m.reprogram(ctx)
}
