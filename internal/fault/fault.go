// File: internal/fault/fault.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Programming-invariant assertions. A violation (resume on a RUNNING
// fiber, a duplicate event registration, reset on a stackless fiber, …)
// is never a recoverable condition: it is logged at error severity and
// the goroutine panics so tests can recover() around it while a real
// deployment crashes hard, matching a native process-abort model.

package fault

import (
	"fmt"

	"github.com/momentics/fiberio/internal/logx"
)

var log = logx.Named("fault")

// Assert panics with msg (formatted with kv as alternating key/value pairs)
// when cond is false. It never returns when cond is false.
func Assert(cond bool, msg string, kv ...any) {
	if cond {
		return
	}
	log.Errorw("invariant violated: "+msg, kv...)
	panic(fmt.Sprintf("fault: %s %v", msg, kv))
}
