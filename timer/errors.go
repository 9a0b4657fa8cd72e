// File: timer/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timer

import "errors"

// ErrTimedOut is returned to a hook-layer caller whose condition timer
// fired before the awaited I/O event, per spec.md §5's Cancellation &
// timeouts section and §7's "Operational" taxonomy row. It is a plain
// sentinel, never panicked: a timeout is an expected outcome, not a
// programming-invariant violation.
var ErrTimedOut = errors.New("timer: operation timed out")
