//go:build !windows

// File: ioreactor/pipe_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The self-pipe trick: a non-blocking pipe whose read end is registered
// for edge-triggered read readiness so a tickle() can interrupt a blocked
// poller wait by writing a single byte (spec.md §4.4's "Construction").
package ioreactor

import "golang.org/x/sys/unix"

func newSelfPipe() (r, w int, err error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return 0, 0, err
	}
	return fds[0], fds[1], nil
}

func writeByte(fd int) error {
	_, err := unix.Write(fd, []byte{0})
	if err == unix.EAGAIN {
		return nil // already has a pending wake byte; nothing more to do
	}
	return err
}

// drainNonblocking empties fd of any pending wake bytes, ignoring errors
// (EAGAIN just means "already empty").
func drainNonblocking(fd int) {
	var buf [64]byte
	for {
		n, err := unix.Read(fd, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func closeFd(fd int) error { return unix.Close(fd) }
