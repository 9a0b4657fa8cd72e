//go:build linux

// File: ioreactor/poller_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The epoll-backed Poller, grounded directly on the teacher's
// reactor/reactor_linux.go linuxReactor: EpollCreate1/EpollCtl/EpollWait
// wrapped one-to-one, with EPOLLET always OR'd in to honor the
// edge-triggered contract spec.md §4.4 requires. The teacher's version
// stashes a uintptr userData in EpollEvent.Pad via unsafe.Pointer because
// its EventReactor has no fd-indexed side table of its own; Manager here
// already has one (its FdContext vector, indexed by fd), so that
// userData trick has no job left to do and is dropped in favor of
// reading Fd straight off the returned epoll_event.
package ioreactor

import (
	"golang.org/x/sys/unix"
)

type epollPoller struct {
	epfd int
}

func newPoller() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: epfd}, nil
}

func toEpollBits(e EventMask) uint32 {
	bits := uint32(unix.EPOLLET)
	if e&Read != 0 {
		bits |= unix.EPOLLIN
	}
	if e&Write != 0 {
		bits |= unix.EPOLLOUT
	}
	return bits
}

func (p *epollPoller) Add(fd int, events EventMask) error {
	ev := &unix.EpollEvent{Events: toEpollBits(events), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev)
}

func (p *epollPoller) Modify(fd int, events EventMask) error {
	ev := &unix.EpollEvent{Events: toEpollBits(events), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (p *epollPoller) Del(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) Wait(timeoutMs int, out []ReadyEvent) (int, error) {
	raw := make([]unix.EpollEvent, len(out))
	n, err := unix.EpollWait(p.epfd, raw, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, errInterrupted
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		var m EventMask
		if raw[i].Events&unix.EPOLLIN != 0 {
			m |= Read
		}
		if raw[i].Events&unix.EPOLLOUT != 0 {
			m |= Write
		}
		if raw[i].Events&unix.EPOLLERR != 0 {
			m |= Err
		}
		if raw[i].Events&unix.EPOLLHUP != 0 {
			m |= Hup
		}
		out[i] = ReadyEvent{Fd: int(raw[i].Fd), Events: m}
	}
	return n, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
