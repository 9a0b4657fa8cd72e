// Package api
// Author: momentics@gmail.com
//
// CPU affinity: pinning a worker's OS thread to one logical core.

package api

// Affinity pins the calling OS thread to a logical CPU — the contract
// affinity.SetAffinity implements as a free function (the scheduler's
// per-worker pinWorkerThread calls it directly rather than through this
// interface; it exists as a
// stable, swappable seam for callers that want to supply their own
// pinning strategy, e.g. in tests).
type Affinity interface {
	Pin(cpuID int) error
}
