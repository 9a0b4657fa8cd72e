// File: scheduler/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package scheduler

import "github.com/momentics/fiberio/fiber"

// AnyThread is the target_thread_id sentinel meaning "any worker may run
// this task", i.e. -1 in the spec's data model.
const AnyThread = -1

// Task is a ScheduleTask: a fiber-or-callback paired with an optional
// target worker. It is consumed exactly once by the dispatch loop.
type Task struct {
	fiber    *fiber.Fiber
	callback func()

	// Target is the worker thread index this task is pinned to, or
	// AnyThread.
	Target int

	// armed guards against a single Task value being dispatched twice.
	// Ordinary queue consumption already makes this impossible (a Task
	// is removed from the queue before being run and is cleared only when
	// picked), so a queued task is always armed; the front-scan skip of a
	// still-RUNNING fiber (see Open Question 1 in DESIGN.md) is decided by
	// runnable's fiber-state check, not by this flag.
	armed bool
}

// NewFiberTask wraps an already-constructed fiber for scheduling.
func NewFiberTask(f *fiber.Fiber, target int) *Task {
	return &Task{fiber: f, Target: target, armed: true}
}

// NewCallbackTask wraps a plain callback for scheduling; the dispatch
// loop runs it inside a (possibly reused) wrapper fiber.
func NewCallbackTask(cb func(), target int) *Task {
	return &Task{callback: cb, Target: target, armed: true}
}

// runnable reports whether t may be dispatched on worker threadIdx right
// now: its target must match, it must not have already been claimed, and
// — for fiber tasks — the fiber must not already be RUNNING elsewhere
// (the benign hook-layer race documented in spec.md §9).
func (t *Task) runnable(threadIdx int) bool {
	if !t.armed {
		return false
	}
	if t.Target != AnyThread && t.Target != threadIdx {
		return false
	}
	if t.fiber != nil && t.fiber.State() == fiber.Running {
		return false
	}
	return true
}
