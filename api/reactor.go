// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// IOManager is the event-driven extension of Scheduler: it adds
// descriptor-level event registration on top of the same
// fiber/callback dispatch contract, implemented concretely by
// ioreactor.Manager.

package api

import "github.com/momentics/fiberio/ioreactor"

// IOManager abstracts ioreactor.Manager's public surface: everything a
// Scheduler offers, plus per-descriptor event registration.
type IOManager interface {
	Scheduler

	// AddEvent registers fd for dir (Read or Write) in edge-triggered
	// mode, waking cb — or, if cb is nil, the calling fiber — on
	// readiness. Registering an already-armed direction is a
	// programming error.
	AddEvent(fd int, dir ioreactor.EventMask, cb func()) error
	// DelEvent clears dir's registration without firing it.
	DelEvent(fd int, dir ioreactor.EventMask) bool
	// CancelEvent clears dir's registration, firing it exactly once.
	CancelEvent(fd int, dir ioreactor.EventMask) bool
	// CancelAll clears every registration on fd, firing each once.
	CancelAll(fd int) bool
	// PendingEventCount returns the number of currently armed
	// (fd, direction) registrations.
	PendingEventCount() int64
}
