//go:build windows

// File: hook/hook_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// golang.org/x/sys/unix's raw socket syscalls are unavailable on
// Windows; the IOManager's poller stub (ioreactor/poller_stub.go)
// governs there too, so the hook layer degrades to "unsupported".
package hook

import (
	"errors"
	"time"

	"github.com/momentics/fiberio/fdtable"
	"github.com/momentics/fiberio/ioreactor"
)

var errUnsupported = errors.New("hook: not supported on this platform")

func Listen(fds *fdtable.Manager, addr string) (int, error) { return -1, errUnsupported }

func Accept(io *ioreactor.Manager, fds *fdtable.Manager, listenFd int, timeoutMs int32) (int, error) {
	return -1, errUnsupported
}

func Read(io *ioreactor.Manager, fds *fdtable.Manager, fd int, buf []byte) (int, error) {
	return -1, errUnsupported
}

func Write(io *ioreactor.Manager, fds *fdtable.Manager, fd int, buf []byte) (int, error) {
	return -1, errUnsupported
}

func DialTimeout(fds *fdtable.Manager, io *ioreactor.Manager, addr string, timeout time.Duration, cfg ConnectTimeoutSource) (int, error) {
	return -1, errUnsupported
}

func Sleep(io *ioreactor.Manager, d time.Duration) {}
