// Package api
// Author: momentics
//
// Scheduler contract for the cooperative fiber/callback dispatcher every
// worker pool in this module is built on.

package api

import "github.com/momentics/fiberio/fiber"

// Scheduler abstracts scheduler.Scheduler's public dispatch surface:
// submit a plain callback or an already-constructed fiber, optionally
// pinned to one worker thread, and observe how many workers are active
// versus idle.
type Scheduler interface {
	// ScheduleFunc submits a plain callback, run inside the picking
	// worker's reusable callback fiber. threadIdx of -1 means "any worker".
	ScheduleFunc(threadIdx int, fn func())
	// ScheduleFiber submits an already-constructed fiber.
	ScheduleFiber(threadIdx int, f *fiber.Fiber)
	// ActiveCount returns the number of workers currently executing a task.
	ActiveCount() int64
	// IdleCount returns the number of workers currently parked idle.
	IdleCount() int64
	// Start spawns the worker pool.
	Start()
	// Stop requests shutdown and blocks until every worker has exited.
	Stop()
}
