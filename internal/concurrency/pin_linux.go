//go:build linux && cgo
// +build linux,cgo

// hioload-ws/internal/concurrency/pin_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific implementation of worker-thread pinning.
// Uses pthread_setaffinity_np via cgo to bind the calling thread to one CPU core.

package concurrency

/*
#define _GNU_SOURCE
#include <sched.h>
#include <pthread.h>
#include <string.h>
#include <errno.h>

// CPU_ZERO/CPU_SET are statement-like macros cgo cannot call directly;
// wrap them (and the affinity call itself) in a real C function.
static int go_pin_thread(int cpu) {
	cpu_set_t mask;
	CPU_ZERO(&mask);
	CPU_SET(cpu, &mask);
	return pthread_setaffinity_np(pthread_self(), sizeof(mask), &mask);
}
*/
import "C"
import (
	"runtime"

	"github.com/momentics/fiberio/internal/logx"
)

var log = logx.Named("concurrency")

// PinCurrentThread pins the calling native thread (the worker's dedicated
// OS thread, via runtime.LockOSThread) to the given CPU core. numaNode is
// accepted for call-site symmetry with the stub builds but unused here.
func PinCurrentThread(numaNode int, cpuID int) {
	runtime.LockOSThread()
	ret := C.go_pin_thread(C.int(cpuID))
	if ret != 0 {
		log.Warnw("failed to set thread affinity", "cpu", cpuID, "err", ret)
	}
}
