// File: fiber/gls.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Goroutine-local storage. Go has no native thread-local storage, and a
// stackful coroutine runtime needs one: resume/yield must find "the
// currently running fiber" and "the scheduling fiber of this worker"
// from arbitrary call depth (e.g. deep inside a hooked blocking syscall),
// never passed as an explicit parameter (see spec.md §6, §9 — "thread-local
// borrowed pointers for current_scheduler, current_scheduling_fiber,
// current_fiber; never store owning references in both directions").
//
// Each cooperative "worker thread" in this runtime is, at any instant,
// exactly one unblocked goroutine (every other participating goroutine for
// that worker is parked on a channel receive) — so a registry keyed by the
// calling goroutine's runtime id gives exactly the thread-local semantics
// the spec calls for, without needing real OS threads or cgo TLS.
package fiber

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// goroutineID extracts the numeric id the Go runtime assigns the calling
// goroutine from its debug stack dump. It is the standard (if inelegant)
// trick for goroutine-local storage in pure Go; used here only inside
// Slot, never exposed to callers of this package.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

// Slot is a generic goroutine-local variable: Set binds a value to the
// calling goroutine; Get retrieves whatever the calling goroutine most
// recently bound; Clear removes the binding. Scheduler and IOManager use
// Slot to implement current_scheduler/current_scheduling_fiber/current_iomanager.
type Slot[T any] struct {
	m sync.Map // goroutine id (uint64) -> T
}

// Set binds value to the calling goroutine.
func (s *Slot[T]) Set(value T) {
	s.m.Store(goroutineID(), value)
}

// Get returns the value bound to the calling goroutine, or the zero value
// and false if none is bound.
func (s *Slot[T]) Get() (T, bool) {
	v, ok := s.m.Load(goroutineID())
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Clear removes any binding for the calling goroutine.
func (s *Slot[T]) Clear() {
	s.m.Delete(goroutineID())
}

// currentFiber is the per-goroutine "what fiber am I inside of" slot.
var currentFiber Slot[*Fiber]

// Current returns the fiber whose entry (or trampoline) is executing on
// the calling goroutine, or nil if the calling goroutine is not running
// inside any fiber (e.g. it is a bare, never-scheduled goroutine).
func Current() *Fiber {
	f, ok := currentFiber.Get()
	if !ok {
		return nil
	}
	return f
}
