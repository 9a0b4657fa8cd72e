//go:build linux

// File: scheduler/threadname_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sets the OS-visible thread name (as read by `ps -T`, /proc/<pid>/task/<tid>/comm)
// via PR_SET_NAME, per spec.md §6's thread-naming rule. PR_SET_NAME applies to
// the calling thread, so this must run after runtime.LockOSThread on the
// goroutine that should carry the name.

package scheduler

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func setOSThreadName(name string) {
	b := append([]byte(name), 0)
	if err := unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&b[0])), 0, 0, 0); err != nil {
		affinityLog.Debugw("prctl PR_SET_NAME failed", "name", name, "err", err)
	}
}
