//go:build !windows

// File: hook/hook_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package hook

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/fiberio/fdtable"
	"github.com/momentics/fiberio/ioreactor"
	"github.com/momentics/fiberio/timer"
)

func newTestIO(t *testing.T) (*ioreactor.Manager, func()) {
	t.Helper()
	m, err := ioreactor.New(2, false, "hook-test")
	if err != nil {
		t.Skipf("no poller implementation on this platform: %v", err)
	}
	m.Start()
	return m, func() {
		m.Stop()
		m.Close()
	}
}

func listenAddr(t *testing.T, listenFd int) string {
	t.Helper()
	sa, err := unix.Getsockname(listenFd)
	if err != nil {
		t.Fatalf("Getsockname: %v", err)
	}
	in4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		t.Fatalf("unexpected sockaddr type %T", sa)
	}
	return fmt.Sprintf("127.0.0.1:%d", in4.Port)
}

// TestAcceptDialReadWriteRoundTrip covers scenario S6: a client dials a
// listening socket via DialTimeout, the server Accepts it, and a single
// write/read pair round-trips through the IOManager's event loop rather
// than a blocking OS-thread syscall.
func TestAcceptDialReadWriteRoundTrip(t *testing.T) {
	io, cleanup := newTestIO(t)
	defer cleanup()
	fds := fdtable.New()

	listenFd, err := Listen(fds, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer unix.Close(listenFd)
	addr := listenAddr(t, listenFd)

	accepted := make(chan int, 1)
	acceptErr := make(chan error, 1)
	io.ScheduleFunc(-1, func() {
		fd, err := Accept(io, fds, listenFd, -1)
		if err != nil {
			acceptErr <- err
			return
		}
		accepted <- fd
	})

	dialed := make(chan int, 1)
	dialErr := make(chan error, 1)
	io.ScheduleFunc(-1, func() {
		fd, err := DialTimeout(fds, io, addr, time.Second, nil)
		if err != nil {
			dialErr <- err
			return
		}
		dialed <- fd
	})

	var serverFd, clientFd int
	select {
	case serverFd = <-accepted:
	case err := <-acceptErr:
		t.Fatalf("Accept: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("Accept never completed")
	}
	select {
	case clientFd = <-dialed:
	case err := <-dialErr:
		t.Fatalf("DialTimeout: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("DialTimeout never completed")
	}
	defer unix.Close(serverFd)
	defer unix.Close(clientFd)

	written := make(chan int, 1)
	writeErr := make(chan error, 1)
	io.ScheduleFunc(-1, func() {
		n, err := Write(io, fds, clientFd, []byte("ping"))
		if err != nil {
			writeErr <- err
			return
		}
		written <- n
	})
	select {
	case n := <-written:
		if n != 4 {
			t.Fatalf("Write returned %d, want 4", n)
		}
	case err := <-writeErr:
		t.Fatalf("Write: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("Write never completed")
	}

	readBuf := make(chan []byte, 1)
	readErr := make(chan error, 1)
	io.ScheduleFunc(-1, func() {
		buf := make([]byte, 16)
		n, err := Read(io, fds, serverFd, buf)
		if err != nil {
			readErr <- err
			return
		}
		readBuf <- buf[:n]
	})
	select {
	case got := <-readBuf:
		if string(got) != "ping" {
			t.Fatalf("Read got %q, want %q", got, "ping")
		}
	case err := <-readErr:
		t.Fatalf("Read: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("Read never completed")
	}
}

// TestReadTimesOutWithoutData covers spec.md §5's condition-timer
// cancellation path: a Read against a per-fd recv timeout with no data
// ever arriving must return timer.ErrTimedOut, not block forever.
func TestReadTimesOutWithoutData(t *testing.T) {
	io, cleanup := newTestIO(t)
	defer cleanup()
	fds := fdtable.New()

	listenFd, err := Listen(fds, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer unix.Close(listenFd)
	addr := listenAddr(t, listenFd)

	accepted := make(chan int, 1)
	io.ScheduleFunc(-1, func() {
		fd, err := Accept(io, fds, listenFd, -1)
		if err != nil {
			t.Errorf("Accept: %v", err)
			return
		}
		accepted <- fd
	})

	dialed := make(chan int, 1)
	io.ScheduleFunc(-1, func() {
		fd, err := DialTimeout(fds, io, addr, time.Second, nil)
		if err != nil {
			t.Errorf("DialTimeout: %v", err)
			return
		}
		dialed <- fd
	})

	var serverFd, clientFd int
	select {
	case serverFd = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("Accept never completed")
	}
	select {
	case clientFd = <-dialed:
	case <-time.After(2 * time.Second):
		t.Fatal("DialTimeout never completed")
	}
	defer unix.Close(serverFd)
	defer unix.Close(clientFd)

	fds.Get(serverFd, true).SetRecvTimeout(50 * time.Millisecond)

	result := make(chan error, 1)
	io.ScheduleFunc(-1, func() {
		buf := make([]byte, 16)
		_, err := Read(io, fds, serverFd, buf)
		result <- err
	})

	select {
	case err := <-result:
		if !errors.Is(err, timer.ErrTimedOut) {
			t.Fatalf("Read returned %v, want timer.ErrTimedOut", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Read never returned")
	}
}
