// File: scheduler/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package scheduler

import (
	"runtime"

	"github.com/momentics/fiberio/fiber"
)

// worker holds the thread-local state of a single scheduler worker: its
// scheduling fiber (runs the dispatch loop as its entry) and a reusable
// callback-wrapping fiber, reset()/resumed instead of allocated fresh per
// callback task (replaced by a new one only after a callback suspends).
type worker struct {
	s          *Scheduler
	idx        int
	schedFiber *fiber.Fiber
	idleFiber  *fiber.Fiber
	cbFiber    *fiber.Fiber

	wakeCh chan struct{}
}

func newWorker(s *Scheduler, idx int) *worker {
	w := &worker{s: s, idx: idx, wakeCh: make(chan struct{}, 1)}
	w.schedFiber = fiber.New(func() { w.dispatch() }, 0, false)
	w.schedFiber.Owner = s
	w.schedFiber.Home = w.schedFiber
	return w
}

// wake posts a signal on the worker's wakeCh, which idle() drains before
// each idle step without ever blocking on it. Safe to call from any
// goroutine; non-blocking (the channel has capacity 1, matching a
// debounced wake signal rather than a counted one).
func (w *worker) wake() {
	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
}

// loop resumes the scheduling fiber once: thread-main's entire job for
// this worker's lifetime. It returns only once the scheduling fiber has
// reached Term, i.e. the worker is shutting down.
func (w *worker) loop() {
	runtime.LockOSThread()
	if w.s.PinWorkers {
		pinWorkerThread(w.idx)
	}
	setOSThreadName(threadName(w.s.Name, w.idx))
	w.schedFiber.Resume()
}

// dispatch is the scheduling fiber's entry: spec.md §4.2's run().
func (w *worker) dispatch() {
	s := w.s
	currentScheduler.Set(s)
	currentSchedulingFiber.Set(w.schedFiber)

	w.idleFiber = fiber.New(func() { w.idle() }, 0, false)
	w.idleFiber.Owner = s
	w.idleFiber.Home = w.schedFiber

	for {
		task, tickleMe := w.pick()
		if tickleMe {
			s.Hooks.WakeOneWorker()
		}

		if task != nil {
			s.activeCount.Add(1)
			w.run(task)
			s.activeCount.Add(-1)
			continue
		}

		if w.idleFiber.State() == fiber.Term {
			return
		}
		s.idleCount.Add(1)
		w.idleFiber.Resume()
		s.idleCount.Add(-1)
	}
}

// pick scans the queue from the front, claiming the first task eligible
// to run on this worker and re-enqueuing (to the back, preserving their
// relative order — see DESIGN.md's Open Question 1 resolution) any task
// skipped along the way.
func (w *worker) pick() (*Task, bool) {
	s := w.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var skipped []*Task
	var picked *Task
	for s.queue.Length() > 0 {
		t := s.queue.Remove().(*Task)
		if !t.runnable(w.idx) {
			skipped = append(skipped, t)
			continue
		}
		t.armed = false
		picked = t
		break
	}
	for _, t := range skipped {
		s.queue.Add(t)
	}
	return picked, len(skipped) > 0
}

// run dispatches a single claimed task by resuming it (directly, if it
// already wraps a fiber; otherwise via the worker's reusable
// callback-wrapping fiber).
func (w *worker) run(t *Task) {
	if t.fiber != nil {
		t.fiber.Owner = w.s
		t.fiber.Home = w.schedFiber
		t.fiber.Resume()
		return
	}

	cb := t.callback
	if w.cbFiber == nil {
		w.cbFiber = fiber.New(cb, w.s.StackSize, true)
		w.cbFiber.Owner = w.s
		w.cbFiber.Home = w.schedFiber
	} else {
		w.cbFiber.Reset(cb)
	}
	w.cbFiber.Resume()
	if w.cbFiber.State() != fiber.Term {
		// The callback suspended itself (e.g. waiting on I/O) and will be
		// resumed later as a fiber task; the next callback gets a new fiber.
		w.cbFiber = nil
	}
}

// idle is the default idle() virtual from spec.md §4.2: spin, yielding
// back to the dispatch loop, until the scheduler is stopping. IOManager
// changes this behavior only by installing its own Hooks (see
// ioreactor.Manager's RunIdleStep and Stopping); the idle fiber entry
// stays this function.
func (w *worker) idle() {
	for !w.s.Hooks.Stopping() {
		select {
		case <-w.wakeCh:
		default:
		}
		w.s.Hooks.RunIdleStep(-1)
	}
}
