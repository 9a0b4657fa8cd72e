// File: scheduler/scheduler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Scheduler is an N worker-thread cooperative dispatcher over a shared
// task queue of fiber-or-callback ScheduleTasks. Its dispatch loop shape
// (front-of-queue scan under a plain mutex, resume-the-picked-task,
// fall through to an idle fiber when the queue is empty) follows the
// same structure as the teacher's NUMA-aware Executor worker loop
// (internal/concurrency/executor.go's worker.run/safeExecute), adapted
// from a goroutine worker pool running arbitrary funcs to one resuming
// cooperative fibers; the FIFO task queue itself is backed by
// github.com/eapache/queue, a dependency the teacher already declared
// but never imported from its own source.
package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/momentics/fiberio/fiber"
	"github.com/momentics/fiberio/internal/logx"
)

var (
	currentScheduler       fiber.Slot[*Scheduler]
	currentSchedulingFiber fiber.Slot[*fiber.Fiber]
)

// Current returns the Scheduler owning the fiber running on the calling
// goroutine, or nil. This is current_scheduler() from spec.md §6.
func Current() *Scheduler {
	if f := fiber.Current(); f != nil {
		if s, ok := f.Owner.(*Scheduler); ok {
			return s
		}
	}
	s, _ := currentScheduler.Get()
	return s
}

// CurrentSchedulingFiber returns the scheduling fiber of the calling
// goroutine's worker — current_scheduling_fiber() from spec.md §6.
func CurrentSchedulingFiber() *fiber.Fiber {
	if f := fiber.Current(); f != nil && f.Home != nil {
		return f.Home
	}
	f, _ := currentSchedulingFiber.Get()
	return f
}

// Scheduler is the cooperative fiber/callback dispatcher described in
// spec.md §3-4.2.
type Scheduler struct {
	Name         string
	ThreadCount  int
	UseCaller    bool
	RootThreadID int
	// PinWorkers opts each worker's OS thread into CPU affinity pinning
	// (affinity.SetAffinity); off by default (SPEC_FULL.md §12).
	PinWorkers bool
	// StackSize is the stack size passed to fiber.New for each worker's
	// reusable callback-wrapping fiber (spec.md §6's "fiber.stack_size"
	// config key, threaded in by facade.New via control.ConfigStore). 0
	// selects fiber.DefaultStackSize.
	StackSize int

	Hooks Hooks

	mu    sync.Mutex
	queue *queue.Queue

	activeCount atomic.Int64
	idleCount   atomic.Int64
	stopping    atomic.Bool

	workers   []*worker
	rootFiber *fiber.Fiber
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	log       *zap.SugaredLogger
}

// New constructs a Scheduler. threadCount is clamped to at least 1;
// use_caller, when true, makes Start spawn one extra "root" worker
// (index threadCount) beyond the threadCount regular ones; Start still
// returns immediately.
func New(threadCount int, useCaller bool, name string) *Scheduler {
	if threadCount < 1 {
		threadCount = 1
	}
	if name == "" {
		name = "fiberio-sched"
	}
	s := &Scheduler{
		Name:         name,
		ThreadCount:  threadCount,
		UseCaller:    useCaller,
		RootThreadID: -1,
		queue:        queue.New(),
		log:          logx.Named("scheduler"),
	}
	s.Hooks = &noopHooks{s: s}
	return s
}

// ActiveCount returns the number of workers currently executing a task.
func (s *Scheduler) ActiveCount() int64 { return s.activeCount.Load() }

// IdleCount returns the number of workers currently parked in idle().
func (s *Scheduler) IdleCount() int64 { return s.idleCount.Load() }

// HasIdleThreads reports whether any worker is currently idle.
func (s *Scheduler) HasIdleThreads() bool { return s.idleCount.Load() > 0 }

// QueueEmpty reports whether the task queue currently holds no tasks.
func (s *Scheduler) QueueEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Length() == 0
}

// Stopping reports whether this scheduler (and only this scheduler's own
// condition — subclasses like IOManager compose additional conditions)
// considers itself quiescent: stop() was called, the queue is drained,
// and no worker is active.
func (s *Scheduler) Stopping() bool {
	return s.stopping.Load() && s.QueueEmpty() && s.activeCount.Load() == 0
}

// Schedule appends task to the queue. If the queue was empty before the
// append, a single idle worker is woken via Hooks.WakeOneWorker.
func (s *Scheduler) Schedule(task *Task) {
	s.mu.Lock()
	wasEmpty := s.queue.Length() == 0
	s.queue.Add(task)
	s.mu.Unlock()

	if wasEmpty {
		s.Hooks.WakeOneWorker()
	}
}

// ScheduleFunc is a convenience wrapper: schedule a plain callback.
func (s *Scheduler) ScheduleFunc(target int, fn func()) {
	s.Schedule(NewCallbackTask(fn, target))
}

// Submit schedules fn on any worker thread — the narrow api.Executor
// facet of ScheduleFunc, for callers that don't care about pinning.
func (s *Scheduler) Submit(fn func()) {
	s.ScheduleFunc(AnyThread, fn)
}

// ScheduleFiber is a convenience wrapper: schedule an already-constructed
// fiber.
func (s *Scheduler) ScheduleFiber(target int, f *fiber.Fiber) {
	s.Schedule(NewFiberTask(f, target))
}

// Start spawns ThreadCount worker goroutines (plus one root worker when
// UseCaller is set), each running its own scheduling-fiber dispatch loop,
// and returns immediately.
//
// The spec's native model reserves the calling thread itself as a worker
// when UseCaller is set, since there a "thread" is a scarce OS resource
// and stop() must later resume that exact stack to drain it. Go
// goroutines are cheap and the runtime already multiplexes them onto OS
// threads, so UseCaller is honored here by spawning one additional
// worker and recording it as the root (RootThreadID, rootFiber) for
// identification — Start never blocks the caller, and Stop's root-fiber
// "resume to drain" step becomes an ordinary wake, avoiding a
// resume-on-an-already-RUNNING-fiber fault that blocking here would
// otherwise risk.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.stopping.Store(false)
		n := s.ThreadCount
		if s.UseCaller {
			s.RootThreadID = s.ThreadCount
			n++
		}
		s.workers = make([]*worker, n)
		for i := 0; i < n; i++ {
			w := newWorker(s, i)
			s.workers[i] = w
			if s.UseCaller && i == s.RootThreadID {
				s.rootFiber = w.schedFiber
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				w.loop()
			}()
		}
	})
}

// Stop requests shutdown: sets stopping, wakes every worker (plus the
// root fiber if UseCaller), and blocks until every worker has exited its
// dispatch loop.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.stopping.Store(true)
		for _, w := range s.workers {
			if w != nil {
				w.wake()
			}
		}
		s.Hooks.WakeOneWorker()
		s.wg.Wait()
	})
}

// threadName mirrors spec.md §6's thread-naming rule: "<scheduler-name>_<index>",
// truncated to 15 bytes (the Linux TASK_COMM_LEN limit honored by
// unix.Prctl(PR_SET_NAME, ...) on the platforms where we can set it).
func threadName(schedName string, idx int) string {
	n := fmt.Sprintf("%s_%d", schedName, idx)
	if len(n) > 15 {
		n = n[:15]
	}
	return n
}
