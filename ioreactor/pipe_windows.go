//go:build windows

// File: ioreactor/pipe_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// newPoller already fails fast on this platform (poller_stub.go), so
// these are never reached in practice; they exist only so the package
// builds.
package ioreactor

import "errors"

func newSelfPipe() (int, int, error) {
	return 0, 0, errors.New("ioreactor: self-pipe unsupported on this platform")
}

func writeByte(fd int) error { return errors.New("ioreactor: unsupported on this platform") }

func drainNonblocking(fd int) {}

func closeFd(fd int) error { return nil }
