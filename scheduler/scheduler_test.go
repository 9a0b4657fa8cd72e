// File: scheduler/scheduler_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package scheduler

import (
	"sync"
	"testing"
	"time"
)

// TestSchedulerBaseline covers scenario S1: two workers, 100 callbacks
// each appending their id to a shared, mutex-protected log; after stop,
// the log holds exactly 100 entries and active_count is 0.
func TestSchedulerBaseline(t *testing.T) {
	s := New(2, false, "s1")
	s.Start()

	var mu sync.Mutex
	var log []int
	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		id := i
		s.ScheduleFunc(AnyThread, func() {
			mu.Lock()
			log = append(log, id)
			mu.Unlock()
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for all 100 callbacks")
	}

	s.Stop()

	mu.Lock()
	n := len(log)
	mu.Unlock()
	if n != 100 {
		t.Fatalf("log has %d entries, want 100", n)
	}
	if s.ActiveCount() != 0 {
		t.Fatalf("active_count = %d, want 0 at return", s.ActiveCount())
	}
}

func TestScheduleWakesIdleWorker(t *testing.T) {
	s := New(1, false, "wake")
	s.Start()
	defer s.Stop()

	done := make(chan struct{})
	s.ScheduleFunc(AnyThread, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled callback never ran")
	}
}

func TestTargetThreadPinning(t *testing.T) {
	s := New(3, false, "pin")
	s.Start()
	defer s.Stop()

	var mu sync.Mutex
	seen := map[int]bool{}
	var wg sync.WaitGroup
	wg.Add(3)
	for target := 0; target < 3; target++ {
		tgt := target
		s.ScheduleFunc(tgt, func() {
			mu.Lock()
			seen[tgt] = true
			mu.Unlock()
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("targeted tasks never completed")
	}

	mu.Lock()
	defer mu.Unlock()
	for target := 0; target < 3; target++ {
		if !seen[target] {
			t.Errorf("task targeted at thread %d never ran", target)
		}
	}
}
