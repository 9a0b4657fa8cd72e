// Package api
// Author: momentics
//
// Executor is the narrow task-submission facet of Scheduler, for callers
// that only want to fire a callback onto the worker pool and don't care
// about thread pinning or fiber lifecycle.

package api

// Executor abstracts fire-and-forget callback submission.
type Executor interface {
	// Submit schedules fn to run on any worker thread.
	Submit(fn func())
}
