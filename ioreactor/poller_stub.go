//go:build !linux

// File: ioreactor/poller_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Mirrors the teacher's reactor/reactor_stub.go: on platforms without an
// epoll-equivalent wired in, New fails fast rather than silently
// degrading to a polling loop. The self-pipe wake mechanism itself is
// portable (spec.md §9's Redesign Flags); only the readiness backend is
// Linux-only here.
package ioreactor

import "errors"

func newPoller() (Poller, error) {
	return nil, errors.New("ioreactor: no poller implementation for this platform")
}
