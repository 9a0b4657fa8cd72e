//go:build windows
// +build windows

// Package concurrency
// Author: momentics <momentics@gmail.com>
//
// Windows-specific implementation of thread/CPU affinity control.
// Used for pinning scheduler worker goroutines to specific OS threads.
//
// This module uses SetThreadAffinityMask from the Windows API to bind the current thread
// to a logical processor.
//
// Reference: https://learn.microsoft.com/en-us/windows/win32/api/winbase/nf-winbase-setthreadaffinitymask

package concurrency

import (
	"runtime"
	"syscall"

	"github.com/momentics/fiberio/internal/logx"
)

var log = logx.Named("concurrency")

// PinCurrentThread attempts to bind the current thread to a logical CPU core.
//
// cpuID:    target logical processor index (0-based)
// numaNode: unused, kept for signature symmetry with the Linux build.
//
// Note: The function itself locks the calling goroutine to its OS thread
// (runtime.LockOSThread) before setting the mask.
// If SetThreadAffinityMask fails, the call degrades gracefully without termination.
func PinCurrentThread(numaNode int, cpuID int) {
	runtime.LockOSThread()

	procSetAffinity := syscall.NewLazyDLL("kernel32.dll").NewProc("SetThreadAffinityMask")

	currentThread := syscall.Handle(^uintptr(1)) // pseudo-handle for GetCurrentThread()

	if cpuID < 0 || cpuID >= 64 {
		log.Warnw("invalid CPU index", "cpu", cpuID)
		return
	}
	var mask uintptr = 1 << uint(cpuID)

	oldMask, _, callErr := procSetAffinity.Call(uintptr(currentThread), mask)
	if oldMask == 0 {
		log.Warnw("failed to set thread affinity", "cpu", cpuID, "err", callErr)
	}
}
