// File: timer/manager_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timer

import (
	"sync"
	"testing"
	"time"
)

// TestTimerOrdering covers scenario S4: three timers at 30ms, 10ms, 20ms,
// each appending its own delay; by t=50ms the log reads [10, 20, 30].
func TestTimerOrdering(t *testing.T) {
	m := New()
	var mu sync.Mutex
	var log []int64

	append3 := func(v int64) func() {
		return func() {
			mu.Lock()
			log = append(log, v)
			mu.Unlock()
		}
	}
	m.AddTimer(30, append3(30), false)
	m.AddTimer(10, append3(10), false)
	m.AddTimer(20, append3(20), false)

	deadline := time.Now().Add(50 * time.Millisecond)
	for time.Now().Before(deadline) {
		for _, cb := range m.ListExpired() {
			cb()
		}
		time.Sleep(2 * time.Millisecond)
	}
	for _, cb := range m.ListExpired() {
		cb()
	}

	mu.Lock()
	defer mu.Unlock()
	want := []int64{10, 20, 30}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log = %v, want %v", log, want)
		}
	}
}

// TestConditionTimerDroppedWitness covers scenario S5: a condition timer
// at 50ms whose witness is dropped at 20ms must not fire by t=100ms.
func TestConditionTimerDroppedWitness(t *testing.T) {
	m := New()
	var mu sync.Mutex
	alive := true
	fired := false

	m.AddConditionTimer(50, func() {
		mu.Lock()
		fired = true
		mu.Unlock()
	}, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return alive
	}, false)

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	alive = false
	mu.Unlock()

	deadline := time.Now().Add(80 * time.Millisecond)
	for time.Now().Before(deadline) {
		for _, cb := range m.ListExpired() {
			cb()
		}
		time.Sleep(2 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if fired {
		t.Fatal("condition timer fired after its witness was dropped")
	}
}

func TestNextTimerMsEmptyIsInfinity(t *testing.T) {
	m := New()
	if got := m.NextTimerMs(); got != Infinity {
		t.Fatalf("NextTimerMs() on empty manager = %d, want Infinity", got)
	}
}

func TestPastDeadlineExpiresImmediately(t *testing.T) {
	m := New()
	fired := make(chan struct{}, 1)
	m.AddTimer(-5, func() { fired <- struct{}{} }, false)

	cbs := m.ListExpired()
	if len(cbs) != 1 {
		t.Fatalf("ListExpired() returned %d callbacks, want 1", len(cbs))
	}
	cbs[0]()
	select {
	case <-fired:
	default:
		t.Fatal("past-deadline timer callback was not the one returned")
	}
}

func TestCancelPreventsFiring(t *testing.T) {
	m := New()
	fired := false
	timer := m.AddTimer(5, func() { fired = true }, false)
	timer.Cancel()

	time.Sleep(20 * time.Millisecond)
	for _, cb := range m.ListExpired() {
		cb()
	}
	if fired {
		t.Fatal("cancelled timer fired")
	}
	if !timer.Cancelled() {
		t.Fatal("Cancelled() = false after Cancel()")
	}
}

func TestRecurringTimerReinserted(t *testing.T) {
	m := New()
	var mu sync.Mutex
	count := 0
	m.AddTimer(5, func() {
		mu.Lock()
		count++
		mu.Unlock()
	}, true)

	deadline := time.Now().Add(40 * time.Millisecond)
	for time.Now().Before(deadline) {
		for _, cb := range m.ListExpired() {
			cb()
		}
		time.Sleep(2 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if count < 2 {
		t.Fatalf("recurring timer fired %d times in 40ms at a 5ms period, want >= 2", count)
	}
}

func TestOnFrontInsertedDebouncedUntilNextTimerMs(t *testing.T) {
	m := New()
	var calls int
	m.OnFrontInserted = func() { calls++ }

	m.AddTimer(100, func() {}, false) // new front: notify, tickled=true
	m.AddTimer(200, func() {}, false) // not front: no notify
	m.AddTimer(150, func() {}, false) // earlier than 200 but not the front: no notify
	if calls != 1 {
		t.Fatalf("OnFrontInserted called %d times before NextTimerMs, want 1", calls)
	}

	m.NextTimerMs() // clears tickled

	m.AddTimer(10, func() {}, false) // new front again: notify
	if calls != 2 {
		t.Fatalf("OnFrontInserted called %d times after re-arming, want 2", calls)
	}
}
