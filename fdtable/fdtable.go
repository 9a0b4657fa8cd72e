// File: fdtable/fdtable.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FdManager is a process-wide lazy registry of per-descriptor metadata
// (spec.md §4.5): socket-ness, the OS-level vs. user-visible non-blocking
// flags, per-close/per-direction state, and timeouts. The hook layer
// consults it to decide whether a blocking call should become
// syscall + register-event + yield. The growable-vector-under-a-lock
// shape is the same pattern the teacher uses for its FdContext vector
// (ioreactor's Manager); here it backs a distinct table keyed by the
// same fd space.
package fdtable

import (
	"sync"
	"time"

	"github.com/momentics/fiberio/internal/logx"
)

var log = logx.Named("fdtable")

// Entry is the per-fd metadata record — FdEntry in spec.md §3.
type Entry struct {
	mu sync.Mutex

	fd              int
	isInitialized   bool
	isSocket        bool
	sysNonblock     bool
	userNonblock    bool
	isClosed        bool
	recvTimeoutMs   int32
	sendTimeoutMs   int32
}

// IsSocket reports whether fstat-based detection classified this fd as a
// socket.
func (e *Entry) IsSocket() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isSocket
}

// UserNonblock reports the user-visible (not the OS-forced) non-blocking
// flag: the hook layer only treats a call as "blocking" when this is
// false, even though the real fd was forced non-blocking at the OS
// level so event-driven readiness polling works underneath.
func (e *Entry) UserNonblock() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userNonblock
}

// SetUserNonblock sets the user-visible non-blocking flag, mirroring a
// caller's fcntl(F_SETFL, O_NONBLOCK) without touching the real OS flag
// (which the manager keeps forced on for sockets).
func (e *Entry) SetUserNonblock(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.userNonblock = v
}

// RecvTimeoutMs / SendTimeoutMs / SetRecvTimeoutMs / SetSendTimeoutMs
// expose the per-direction timeouts the hook layer arms condition timers
// with (spec.md §6).
func (e *Entry) RecvTimeoutMs() int32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recvTimeoutMs
}

func (e *Entry) SendTimeoutMs() int32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sendTimeoutMs
}

func (e *Entry) SetRecvTimeout(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recvTimeoutMs = int32(d.Milliseconds())
}

func (e *Entry) SetSendTimeout(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sendTimeoutMs = int32(d.Milliseconds())
}

func (e *Entry) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isClosed
}

// IsInitialized reports whether the entry has completed its initial
// fstat-based classification.
func (e *Entry) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isInitialized
}

// Fd returns the file descriptor this entry tracks.
func (e *Entry) Fd() int { return e.fd }

// Manager is the process-wide FdManager: a 1.5x-growth vector of *Entry
// indexed by fd, guarded by a read/write lock (spec.md §4.5, §5).
type Manager struct {
	mu      sync.RWMutex
	entries []*Entry
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{entries: make([]*Entry, 32)}
}

// Get returns the Entry for fd, lazily creating one (via fstat-based
// socket detection) when autoCreate is true and none exists yet.
func (m *Manager) Get(fd int, autoCreate bool) *Entry {
	m.mu.RLock()
	if fd < len(m.entries) && m.entries[fd] != nil {
		e := m.entries[fd]
		m.mu.RUnlock()
		return e
	}
	m.mu.RUnlock()

	if !autoCreate {
		return nil
	}
	return m.create(fd)
}

func (m *Manager) create(fd int) *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if fd < len(m.entries) && m.entries[fd] != nil {
		return m.entries[fd]
	}
	m.grow(fd)

	e := &Entry{fd: fd, isInitialized: true}
	e.isSocket, e.sysNonblock = detectSocket(fd)
	if e.isSocket && !e.sysNonblock {
		if err := forceNonblock(fd); err != nil {
			log.Warnw("failed to force O_NONBLOCK on socket fd", "fd", fd, "err", err)
		} else {
			e.sysNonblock = true
		}
	}
	m.entries[fd] = e
	return e
}

// grow ensures m.entries is addressable at index fd, growing by 1.5x
// when needed (spec.md §4.5's "vector with 1.5x growth"). Caller holds
// m.mu for writing.
func (m *Manager) grow(fd int) {
	if fd < len(m.entries) {
		return
	}
	newLen := len(m.entries)
	if newLen == 0 {
		newLen = 32
	}
	for newLen <= fd {
		newLen = newLen + newLen/2 + 1
	}
	grown := make([]*Entry, newLen)
	copy(grown, m.entries)
	m.entries = grown
}

// Del releases the entry for fd, marking it closed.
func (m *Manager) Del(fd int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fd < len(m.entries) && m.entries[fd] != nil {
		m.entries[fd].mu.Lock()
		m.entries[fd].isClosed = true
		m.entries[fd].mu.Unlock()
		m.entries[fd] = nil
	}
}

