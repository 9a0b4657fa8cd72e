// File: scheduler/hooks.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The teacher's reactor/executor split used Go interfaces and embedding
// for its dispatch customization points. Here the Scheduler→IOManager
// override chain (tickle/idle/on_timer_inserted_at_front in spec.md §9)
// is recast the same way the design notes ask for: a small capability
// interface the dispatch/idle loop consumes, rather than a virtual-method
// override chain. The default Hooks is a no-op; ioreactor.Manager
// supplies its own implementation by assigning itself to Scheduler.Hooks.
package scheduler

import "github.com/momentics/fiberio/fiber"

// Hooks is the capability interface run() and the idle loop consume for
// their three overridable behaviors. WakeOneWorker corresponds to tickle();
// RunIdleStep corresponds to the default idle() method, parameterized by
// a next-timer-deadline argument (the worker's idle loop has no timer
// view of its own and always passes -1; ioreactor.Manager ignores it in
// favor of its own Timers, and the no-op default just yields once);
// Stopping is the idle loop's termination condition.
type Hooks interface {
	// WakeOneWorker wakes a single idle worker, if any are idle.
	WakeOneWorker()
	// RunIdleStep executes one iteration of the idle path. nextDeadlineMs
	// is the caller's current view of how soon the earliest timer fires,
	// or -1 if there is no pending timer.
	RunIdleStep(nextDeadlineMs int64)
	// Stopping reports whether the idle loop should exit. The default
	// composes only the Scheduler's own condition; ioreactor.Manager
	// installs an override that additionally requires no pending timers
	// and no pending I/O events, per spec.md §4.4's stopping() override.
	Stopping() bool
}

// noopHooks is the default Hooks: tickle is a logged no-op, and idle
// spins in a tight resume loop until the scheduler is stopping — matching
// spec.md §4.2's "Default tickle ... Default idle".
type noopHooks struct {
	s *Scheduler
}

func (h *noopHooks) WakeOneWorker() {
	h.s.log.Debugw("tickle (no-op default)")
}

func (h *noopHooks) RunIdleStep(nextDeadlineMs int64) {
	fiber.Yield()
}

func (h *noopHooks) Stopping() bool {
	return h.s.Stopping()
}
