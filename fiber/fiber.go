// File: fiber/fiber.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fiber emulates a stackful coroutine on top of the Go runtime: each fiber
// with a stack owns a dedicated goroutine, parked on an unbuffered channel
// whenever it is not the one logically "running". Resume/Yield form a
// synchronous, symmetric hand-off — exactly one of {caller, fiber} is ever
// unblocked at a time for a given fiber, which is what lets this emulate
// true coroutine semantics (one logical stack transfers control to
// another and back) instead of plain goroutine fan-out.
//
// The goroutine+channel resume/yield shape is adapted from the scheduler
// task model in the coopsched reference implementation (task.wakeCh /
// waitAndBlock): there a task parks on a channel until explicitly woken;
// here a fiber parks on its resume channel until explicitly resumed, and
// symmetrically signals the resumer back via its yield channel.
package fiber

import (
	"sync/atomic"

	"github.com/momentics/fiberio/internal/fault"
	"github.com/momentics/fiberio/internal/logx"
)

var log = logx.Named("fiber")

// State is the lifecycle state of a Fiber.
type State int32

const (
	// Ready means the fiber is not currently executing and may be resumed.
	Ready State = iota
	// Running means the fiber is the one currently executing on its worker.
	Running
	// Term means the fiber's entry function has returned; it may only be
	// reset (if it owns a stack) or discarded.
	Term
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Term:
		return "term"
	default:
		return "unknown"
	}
}

const (
	// DefaultStackSize is used when New is given a stackSize of 0.
	DefaultStackSize = 128 * 1024
	// MinStackSize is the floor any non-zero requested stack size is
	// clamped up to.
	MinStackSize = 16 * 1024
)

var nextID uint64

// liveCount tracks how many fiber goroutines currently exist, from the
// start of run() to its terminal yield — metrics.Exporter's
// fiberio_active_fibers gauge reads this directly.
var liveCount atomic.Int64

// LiveCount returns the number of fiber goroutines currently running
// (spawned but not yet reached Term).
func LiveCount() int64 { return liveCount.Load() }

// Fiber is a single cooperatively-scheduled stackful execution context.
//
// StackSize is carried as metadata only: Go's runtime grows goroutine
// stacks on demand and gives callers no way to pre-size or pin one, so
// unlike a native stackful-coroutine library this field does not actually
// allocate anything — it is honored as a configuration/observability
// value (and clamped the way the spec requires) but has no effect on the
// underlying goroutine's real stack.
type Fiber struct {
	id              uint64
	StackSize       int
	RunsInScheduler bool

	// Owner and Home are bookkeeping fields the scheduler package sets
	// before first dispatching a fiber; fiber itself never reads them.
	// Owner identifies the Scheduler a dispatched fiber belongs to; Home
	// identifies the scheduling fiber it resumes/yields against (itself,
	// for a scheduling fiber). Keeping them here as plain `any`/`*Fiber`
	// fields — rather than a second goroutine-local registry — gives
	// current_scheduler()/current_scheduling_fiber() an O(1) lookup via
	// Current() without an import cycle back to the scheduler package.
	Owner any
	Home  *Fiber

	state atomic.Int32
	entry atomic.Pointer[func()]

	resumeCh chan struct{}
	yieldCh  chan struct{}
	started  atomic.Bool
}

// New allocates a fiber with a stack (i.e. one that will own a goroutine
// of its own on first Resume). entry is the trampoline body; stackSize of
// 0 selects DefaultStackSize, and any positive value below MinStackSize is
// clamped up to it. runsInScheduler is recorded as RunsInScheduler to mark
// whether this fiber belongs with its worker's scheduling fiber (true) or
// the worker's thread-main fiber (false); neither Resume nor Yield reads
// it — a fiber always yields back to whichever goroutine last resumed it.
func New(entry func(), stackSize int, runsInScheduler bool) *Fiber {
	if stackSize <= 0 {
		stackSize = DefaultStackSize
	} else if stackSize < MinStackSize {
		stackSize = MinStackSize
	}
	f := &Fiber{
		StackSize:       stackSize,
		RunsInScheduler: runsInScheduler,
		resumeCh:        make(chan struct{}),
		yieldCh:         make(chan struct{}),
		id:              atomic.AddUint64(&nextID, 1),
	}
	f.entry.Store(&entry)
	f.state.Store(int32(Ready))
	return f
}

// NewStackless returns a marker fiber with no stack of its own: it never
// spawns a goroutine and can never be Reset. It exists purely as an
// identity — the thread-main fiber of a worker is one of these, used as
// the Resume/Yield partner for the worker's scheduling fiber and as the
// "current fiber" while no user fiber is running.
func NewStackless() *Fiber {
	f := &Fiber{resumeCh: make(chan struct{}), yieldCh: make(chan struct{})}
	f.state.Store(int32(Ready))
	return f
}

// ID returns a process-unique, monotonically assigned identifier.
func (f *Fiber) ID() uint64 { return f.id }

// State returns the fiber's current lifecycle state.
func (f *Fiber) State() State { return State(f.state.Load()) }

// HasStack reports whether this fiber owns (or will own) a dedicated
// goroutine — false only for thread-main/marker fibers from NewStackless.
func (f *Fiber) HasStack() bool { return f.entry.Load() != nil }

// Resume transfers control to f: it blocks the calling goroutine until f
// yields or terminates. Resume must not be called on a fiber that is
// already Running or has already reached Term.
func (f *Fiber) Resume() {
	fault.Assert(f.State() != Running, "resume on running fiber", "fiber", f.id)
	fault.Assert(f.State() != Term, "resume on terminated fiber", "fiber", f.id)

	f.state.Store(int32(Running))

	if f.started.CompareAndSwap(false, true) {
		go f.run()
	} else {
		f.resumeCh <- struct{}{}
	}
	<-f.yieldCh
}

// Yield suspends the calling fiber, handing control back to whichever
// goroutine most recently Resumed it, and blocks until it is Resumed
// again. Yield must be called from inside the fiber's own goroutine —
// typically via the package-level Yield() helper, which resolves the
// calling goroutine's current fiber automatically.
func (f *Fiber) Yield() {
	fault.Assert(f.State() == Running, "yield on non-running fiber", "fiber", f.id)
	f.state.Store(int32(Ready))
	f.yieldCh <- struct{}{}
	<-f.resumeCh
	f.state.Store(int32(Running))
}

// Reset re-arms a terminated, stack-owning fiber with a new entry point,
// so it can be Resumed again as if freshly constructed. Only permitted
// on a fiber that HasStack and whose State is Term.
func (f *Fiber) Reset(entry func()) {
	fault.Assert(f.HasStack(), "reset on stackless fiber", "fiber", f.id)
	fault.Assert(f.State() == Term, "reset on non-terminated fiber", "fiber", f.id)
	f.entry.Store(&entry)
	f.started.Store(false)
	f.state.Store(int32(Ready))
}

// run is the trampoline body: it executes entry to completion, marks the
// fiber Term, and performs one final, unreciprocated yield so the
// goroutine that Resumed it unblocks. It never returns to its caller —
// the goroutine exits immediately after.
func (f *Fiber) run() {
	liveCount.Add(1)
	defer liveCount.Add(-1)
	currentFiber.Set(f)
	defer currentFiber.Clear() // goroutine ids get recycled; never leave a stale binding behind
	entryPtr := f.entry.Load()
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("fiber entry panicked", "fiber", f.id, "panic", r)
			}
		}()
		(*entryPtr)()
	}()
	f.state.Store(int32(Term))
	f.yieldCh <- struct{}{}
}

// Yield suspends whatever fiber is running on the calling goroutine. It
// is a programming error to call it from a goroutine that is not
// currently executing inside a fiber (fault.Assert enforces this).
func Yield() {
	f := Current()
	fault.Assert(f != nil, "Yield called outside any fiber")
	f.Yield()
}
