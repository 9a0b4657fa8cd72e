// File: api/fdtable.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FdManager abstracts fdtable.Manager's per-descriptor registry — the
// hook layer's view of socket classification, non-blocking state, and
// per-direction timeouts.

package api

import "github.com/momentics/fiberio/fdtable"

// FdManager is the process-wide FdEntry registry the hook layer consults
// before deciding whether a blocking call should become a syscall plus a
// registered event and a yield.
type FdManager interface {
	// Get returns the Entry for fd, lazily creating one when autoCreate
	// is true and none exists yet.
	Get(fd int, autoCreate bool) *fdtable.Entry
	// Del releases the entry for fd, marking it closed.
	Del(fd int)
}
