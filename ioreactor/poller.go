// File: ioreactor/poller.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Poller is the readiness-queryable contract Manager drives: register a
// descriptor for a set of edge-triggered events, wait for a batch of
// readiness notifications, reprogram or drop a registration. It plays
// the same role as the teacher's reactor.EventReactor, narrowed to the
// fd-is-the-correlation-key shape Manager actually needs — Manager keeps
// its own fd-indexed FdContext vector, so unlike the teacher's
// EpollEvent.Pad opaque-userData trick there is nothing to stash in the
// poller beyond the fd itself.
package ioreactor

import "errors"

// EventMask is a bitmask over the two directions a descriptor can be
// registered for, plus the two error conditions the idle loop synthesizes
// into both directions (spec.md §4.4's idle-loop pseudocode).
type EventMask uint32

const (
	Read EventMask = 1 << iota
	Write
	Err
	Hup
)

// ReadyEvent is one readiness notification returned by Poller.Wait.
type ReadyEvent struct {
	Fd     int
	Events EventMask
}

// Poller is the platform-specific readiness backend. Methods are called
// concurrently: Wait from every worker's idle fiber, Add/Modify/Del from
// whichever goroutine registers, cancels or dispatches an event. The
// epoll backend keeps no state beyond the epoll fd and relies on the
// kernel's own synchronization.
type Poller interface {
	// Add registers fd for events in edge-triggered mode. fd must not
	// already be registered.
	Add(fd int, events EventMask) error
	// Modify reprograms an already-registered fd to a new event set.
	Modify(fd int, events EventMask) error
	// Del removes fd's registration entirely.
	Del(fd int) error
	// Wait blocks up to timeoutMs (or indefinitely, if negative) and
	// fills out with ready events, returning the count filled.
	Wait(timeoutMs int, out []ReadyEvent) (int, error)
	Close() error
}

// errInterrupted is returned by a Poller.Wait that was interrupted by a
// signal (EINTR) rather than timing out or finding readiness — the idle
// loop's pseudocode treats this as "continue", not an error.
var errInterrupted = errors.New("ioreactor: poller wait interrupted")
