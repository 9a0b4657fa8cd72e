// File: ioreactor/fdcontext.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FdContext is the per-descriptor record of spec.md §3/§4.4: a bitmask of
// registered directions plus one event-context per direction, each
// holding either a plain callback or a waiting fiber. Firing a direction
// is one-shot — triggerLocked clears the bit and resets the context in
// the same step a caller must already be holding mu for, mirroring the
// "one-shot dispatch, re-register to keep listening" contract.
package ioreactor

import (
	"sync"

	"github.com/momentics/fiberio/fiber"
	"github.com/momentics/fiberio/scheduler"
)

// eventContext holds the waiter for one direction of one fd: the
// scheduler it was registered from, and either a plain callback or a
// fiber captured while RUNNING — never both.
type eventContext struct {
	scheduler *scheduler.Scheduler
	cb        func()
	fiber     *fiber.Fiber
}

func (c eventContext) empty() bool { return c.scheduler == nil }

// FdContext is the per-fd record in Manager's fd-indexed vector.
type FdContext struct {
	mu sync.Mutex

	fd     int
	events EventMask // subset of {Read, Write}; Err/Hup are never stored here

	read, write eventContext
}

// Fd returns the descriptor this context tracks.
func (c *FdContext) Fd() int { return c.fd }

// Events returns the currently registered direction bits. Safe to call
// without holding mu; intended for diagnostics.
func (c *FdContext) Events() EventMask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

func (c *FdContext) ctxFor(dir EventMask) *eventContext {
	if dir == Read {
		return &c.read
	}
	return &c.write
}

// triggerLocked clears dir's bit and schedules its stored work onto its
// recorded scheduler. Caller must hold c.mu and have verified dir's bit
// is set; it does not touch any pending-event counter — callers account
// for that themselves (CancelEvent, CancelAll and dispatchReady each
// decrement once per direction they trigger).
func (c *FdContext) triggerLocked(dir EventMask) {
	c.events &^= dir
	ec := c.ctxFor(dir)
	if ec.empty() {
		return
	}
	sched, cb, f := ec.scheduler, ec.cb, ec.fiber
	*ec = eventContext{}

	if f != nil {
		sched.ScheduleFiber(scheduler.AnyThread, f)
	} else if cb != nil {
		sched.ScheduleFunc(scheduler.AnyThread, cb)
	}
}
