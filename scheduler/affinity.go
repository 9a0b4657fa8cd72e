// File: scheduler/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Optional CPU pinning for scheduler workers, gated behind
// Scheduler.PinWorkers (default off — see SPEC_FULL.md §12). Grounded on
// the teacher's affinity package: each worker locks its OS thread and
// pins it to CPU (index mod NumCPU).
package scheduler

import (
	"runtime"

	"github.com/momentics/fiberio/affinity"
	"github.com/momentics/fiberio/internal/logx"
)

var affinityLog = logx.Named("scheduler.affinity")

func pinWorkerThread(idx int) {
	runtime.LockOSThread()
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	if err := affinity.SetAffinity(idx % n); err != nil {
		affinityLog.Warnw("worker affinity pin failed", "worker", idx, "err", err)
	}
}
