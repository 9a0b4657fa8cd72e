// File: ioreactor/manager_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ioreactor

import (
	"os"
	"testing"
	"time"
)

func newTestManager(t *testing.T) (*Manager, func()) {
	t.Helper()
	m, err := New(1, false, "io-test")
	if err != nil {
		t.Skipf("no poller implementation on this platform: %v", err)
	}
	return m, func() {
		m.Stop()
		m.Close()
	}
}

// TestAddDelEventRoundTrip covers the "add_event;del_event returns the
// FdContext to its pre-call state" law from spec.md §7.
func TestAddDelEventRoundTrip(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	fd := int(r.Fd())
	called := false
	if err := m.AddEvent(fd, Read, func() { called = true }); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if m.PendingEventCount() != 1 {
		t.Fatalf("PendingEventCount() = %d, want 1", m.PendingEventCount())
	}

	if !m.DelEvent(fd, Read) {
		t.Fatal("DelEvent returned false for an armed registration")
	}
	if m.PendingEventCount() != 0 {
		t.Fatalf("PendingEventCount() after DelEvent = %d, want 0", m.PendingEventCount())
	}
	if called {
		t.Fatal("DelEvent must not invoke the stored callback")
	}
}

// TestCancelEventFiresCallbackOnce covers "add_event(fd,e,cb);
// cancel_event(fd,e) invokes cb exactly once" from spec.md §7.
func TestCancelEventFiresCallbackOnce(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	m.Start()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	fd := int(r.Fd())
	fired := make(chan struct{}, 2)
	if err := m.AddEvent(fd, Read, func() { fired <- struct{}{} }); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}

	if !m.CancelEvent(fd, Read) {
		t.Fatal("CancelEvent returned false for an armed registration")
	}

	select {
	case <-fired:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("cancelled event's callback never ran")
	}
	select {
	case <-fired:
		t.Fatal("cancelled event's callback ran more than once")
	case <-time.After(20 * time.Millisecond):
	}

	if m.PendingEventCount() != 0 {
		t.Fatalf("PendingEventCount() after CancelEvent = %d, want 0", m.PendingEventCount())
	}
}

// TestPipeReadinessDispatchesOnce covers scenario S3: a byte written to a
// registered pipe's write end is dispatched to the waiting callback
// within 100ms, and pending_event_count returns to 0.
func TestPipeReadinessDispatchesOnce(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	m.Start()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	fd := int(r.Fd())
	appended := make(chan string, 1)
	if err := m.AddEvent(fd, Read, func() { appended <- "r" }); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}

	if _, err := w.Write([]byte{7}); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case s := <-appended:
		if s != "r" {
			t.Fatalf("appended %q, want %q", s, "r")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("read readiness was not dispatched within 100ms")
	}

	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) && m.PendingEventCount() != 0 {
		time.Sleep(2 * time.Millisecond)
	}
	if m.PendingEventCount() != 0 {
		t.Fatalf("PendingEventCount() after dispatch = %d, want 0", m.PendingEventCount())
	}
}

// TestDuplicateEventRegistrationPanics covers the fatal-programming-error
// case in spec.md §4.4 step 2.
func TestDuplicateEventRegistrationPanics(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	fd := int(r.Fd())
	if err := m.AddEvent(fd, Read, func() {}); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("duplicate AddEvent registration did not panic")
		}
	}()
	m.AddEvent(fd, Read, func() {})
}

// TestTimerDrivenThroughIOManagerIdleLoop covers scenario S4 running
// inside an IOManager instead of a bare timer.Manager: the idle loop's
// ListExpired drain must deliver callbacks in deadline order even while
// sharing the poller wait with I/O readiness.
func TestTimerDrivenThroughIOManagerIdleLoop(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	m.Start()

	order := make(chan int64, 3)
	m.Timers.AddTimer(30, func() { order <- 30 }, false)
	m.Timers.AddTimer(10, func() { order <- 10 }, false)
	m.Timers.AddTimer(20, func() { order <- 20 }, false)

	want := []int64{10, 20, 30}
	for i, w := range want {
		select {
		case got := <-order:
			if got != w {
				t.Fatalf("timer %d fired = %d, want %d", i, got, w)
			}
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("timer %d never fired", i)
		}
	}
}
