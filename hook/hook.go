//go:build !windows

// File: hook/hook.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package hook is a minimal, fully worked implementation of spec.md
// §6's "Contract to the hook layer": Listen, Accept, Read, Write,
// DialTimeout and Sleep, built directly on an *ioreactor.Manager and an
// *fdtable.Manager. It exists so the runtime is demonstrably
// end-to-end runnable even though the spec formally treats the hook
// layer as an external collaborator — this package only consumes the
// published IOManager/FdManager surface, it never changes it.
//
// The accept-loop shape is adapted from the teacher's
// transport/tcp/listener.go (StartTCPListener/handleConn): that
// function blocks in net.Listener.Accept and conn.SetDeadline for
// per-connection timeouts, which is exactly the blocking-syscall shape
// this package replaces with syscall + register-event + yield so
// accept/read/write all suspend a fiber instead of an OS thread. The
// WebSocket handshake itself is dropped — out of scope for this domain.
package hook

import (
	"errors"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/fiberio/fdtable"
	"github.com/momentics/fiberio/fiber"
	"github.com/momentics/fiberio/internal/fault"
	"github.com/momentics/fiberio/ioreactor"
	"github.com/momentics/fiberio/scheduler"
	"github.com/momentics/fiberio/timer"
)

// resolveTCPAddr turns a "host:port" string into the raw unix.Sockaddr
// bind/connect needs, sidestepping net.Listen/net.Dial entirely since
// this package manages the fd's lifecycle itself from socket(2) onward.
func resolveTCPAddr(addr string) (unix.Sockaddr, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return nil, err
	}
	var ip [4]byte
	copy(ip[:], tcpAddr.IP.To4())
	return &unix.SockaddrInet4{Port: tcpAddr.Port, Addr: ip}, nil
}

// Listen opens a non-blocking, edge-triggered-ready TCP listening socket
// on addr (host:port) and registers it with fds, generalizing the
// teacher's net.Listen("tcp", cfg.Addr) into a raw fd the IOManager can
// poll directly.
func Listen(fds *fdtable.Manager, addr string) (int, error) {
	sa, err := resolveTCPAddr(addr)
	if err != nil {
		return -1, err
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, 128); err != nil {
		unix.Close(fd)
		return -1, err
	}

	fds.Get(fd, true)
	return fd, nil
}

// Accept implements spec.md §6 step 1-3 for accept(2): try the syscall,
// and on EAGAIN register Read readiness (bounded by timeoutMs, or
// unbounded when timeoutMs < 0) and yield until a connection arrives or
// the condition timer fires.
func Accept(io *ioreactor.Manager, fds *fdtable.Manager, listenFd int, timeoutMs int32) (int, error) {
	connFd, err := blockingRetry(io, listenFd, ioreactor.Read, timeoutMs, func() (int, error) {
		nfd, _, aerr := unix.Accept4(listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		return nfd, aerr
	})
	if err != nil {
		return -1, err
	}
	fds.Get(connFd, true)
	return connFd, nil
}

// Read implements the §6 contract for a non-blocking read(2), arming
// the per-fd receive timeout recorded in fds (0 means no timeout).
func Read(io *ioreactor.Manager, fds *fdtable.Manager, fd int, buf []byte) (int, error) {
	timeoutMs := recvTimeout(fds, fd)
	return blockingRetry(io, fd, ioreactor.Read, timeoutMs, func() (int, error) {
		return unix.Read(fd, buf)
	})
}

// Write implements the §6 contract for a non-blocking write(2), arming
// the per-fd send timeout recorded in fds (0 means no timeout).
func Write(io *ioreactor.Manager, fds *fdtable.Manager, fd int, buf []byte) (int, error) {
	timeoutMs := sendTimeout(fds, fd)
	return blockingRetry(io, fd, ioreactor.Write, timeoutMs, func() (int, error) {
		return unix.Write(fd, buf)
	})
}

// DialTimeout implements spec.md §6's "connect with timeout follows the
// same pattern on WRITE readiness": a non-blocking connect(2) that
// either succeeds immediately, fails immediately, or returns
// EINPROGRESS — in which case Write readiness (plus SO_ERROR inspection
// on wake) determines the final outcome. When timeout <= 0, cfg (if
// non-nil) supplies the default via cfg.ConnectTimeout(); a nil cfg with
// timeout <= 0 waits unbounded.
func DialTimeout(fds *fdtable.Manager, io *ioreactor.Manager, addr string, timeout time.Duration, cfg ConnectTimeoutSource) (int, error) {
	sa, err := resolveTCPAddr(addr)
	if err != nil {
		return -1, err
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	fds.Get(fd, true)

	err = unix.Connect(fd, sa)
	if err == nil {
		return fd, nil
	}
	if !errors.Is(err, unix.EINPROGRESS) {
		unix.Close(fd)
		return -1, err
	}

	if timeout <= 0 && cfg != nil {
		timeout = cfg.ConnectTimeout()
	}
	timeoutMs := int32(-1)
	if timeout > 0 {
		timeoutMs = int32(timeout.Milliseconds())
	}
	_, err = blockingRetry(io, fd, ioreactor.Write, timeoutMs, func() (int, error) {
		errno, gerr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
		if gerr != nil {
			return 0, gerr
		}
		if errno != 0 {
			return 0, unix.Errno(errno)
		}
		return 0, nil
	})
	if err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// Sleep implements spec.md §6's "sleep/usleep/nanosleep are implemented
// as add_timer(ms, ‹schedule-self›); yield": it parks the calling fiber
// on io's TimerManager for d and resumes it on expiry.
func Sleep(io *ioreactor.Manager, d time.Duration) {
	f := fiber.Current()
	fault.Assert(f != nil, "hook.Sleep called outside any fiber")

	sched := scheduler.Current()
	if sched == nil {
		sched = io.Scheduler
	}
	io.Timers.AddTimer(d.Milliseconds(), func() {
		sched.ScheduleFiber(scheduler.AnyThread, f)
	}, false)
	fiber.Yield()
}

// blockingRetry is the generalized form of spec.md §6's "Contract to the
// hook layer": attempt the syscall; on EAGAIN, obtain current_iomanager
// (here, the io argument, since this package addresses a specific
// Manager rather than relying on ioreactor.Current() for testability),
// arm a condition timer when timeoutMs is non-negative, add_event the
// fiber as waiter, and yield. On wake, an attempt record set only when
// the condition timer genuinely won the race (CancelEvent returned
// true — see dispatchReady's one-shot-per-direction guarantee) reports
// ETIMEDOUT; otherwise the syscall is retried.
func blockingRetry(io *ioreactor.Manager, fd int, dir ioreactor.EventMask, timeoutMs int32, attempt func() (int, error)) (int, error) {
	for {
		n, err := attempt()
		if err == nil {
			return n, nil
		}
		if !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EWOULDBLOCK) {
			return n, err
		}

		var timedOut atomic.Bool
		var ct *timer.Timer
		if timeoutMs >= 0 {
			ct = io.Timers.AddConditionTimer(int64(timeoutMs), func() {
				if io.CancelEvent(fd, dir) {
					timedOut.Store(true)
				}
			}, func() bool { return true }, false)
		}

		if err := io.AddEvent(fd, dir, nil); err != nil {
			if ct != nil {
				ct.Cancel()
			}
			return -1, err
		}
		fiber.Yield()
		if ct != nil {
			ct.Cancel()
		}
		if timedOut.Load() {
			return -1, timer.ErrTimedOut
		}
	}
}

func recvTimeout(fds *fdtable.Manager, fd int) int32 {
	e := fds.Get(fd, true)
	if ms := e.RecvTimeoutMs(); ms > 0 {
		return ms
	}
	return -1
}

func sendTimeout(fds *fdtable.Manager, fd int) int32 {
	e := fds.Get(fd, true)
	if ms := e.SendTimeoutMs(); ms > 0 {
		return ms
	}
	return -1
}
