// File: facade/runtime.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime aggregates the IOManager (itself a Scheduler+TimerManager),
// the FdManager, the configuration store, the debug probe registry and
// the metrics exporter behind one constructor — the same shape as the
// teacher's HioloadWS aggregating transport + pools + sessions behind
// facade.New/Start/Stop/Shutdown.
package facade

import (
	"fmt"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/fiberio/api"
	"github.com/momentics/fiberio/control"
	"github.com/momentics/fiberio/fdtable"
	"github.com/momentics/fiberio/internal/logx"
	"github.com/momentics/fiberio/ioreactor"
	"github.com/momentics/fiberio/metrics"
	"github.com/momentics/fiberio/scheduler"
	"github.com/momentics/fiberio/timer"
)

// Compile-time satisfaction assertions deferred here from their owning
// packages: ioreactor, fdtable, scheduler and timer cannot import api
// themselves without cycling back through api's own references to
// ioreactor/fdtable types; control's assertions are kept here alongside
// them.
var (
	_ api.IOManager        = (*ioreactor.Manager)(nil)
	_ api.FdManager        = (*fdtable.Manager)(nil)
	_ api.Control          = (*controlSurface)(nil)
	_ api.GracefulShutdown = (*Runtime)(nil)
	_ api.Scheduler        = (*scheduler.Scheduler)(nil)
	_ api.Executor         = (*scheduler.Scheduler)(nil)
	_ api.TimerManager     = (*timer.Manager)(nil)
	_ api.Debug            = (*control.DebugProbes)(nil)
	_ api.Config           = (*control.ConfigStore)(nil)
)

// controlSurface satisfies api.Control by embedding both halves of it —
// Config from control.ConfigStore, Debug from control.DebugProbes — so
// method promotion does the delegation instead of hand-written wrappers.
type controlSurface struct {
	*control.ConfigStore
	*control.DebugProbes
}

// Config is the Runtime's construction-time configuration, generalized
// from the teacher's facade.Config/DefaultConfig() shape.
type Config struct {
	// Threads is the worker pool size. 0 defaults to 1.
	Threads int
	// UseCaller, if true, adds one root worker goroutine beyond Threads
	// (index Threads); Start never blocks the calling goroutine.
	UseCaller bool
	// Name seeds each worker's OS thread name (<name>_<index>, truncated
	// to 15 bytes) and the metrics exporter's "manager" label.
	Name string
	// PinWorkers, if true, pins each worker's OS thread to a logical CPU
	// core via affinity.SetAffinity before it starts running tasks. Off
	// by default: the spec does not mandate pinning, and on a shared or
	// virtualized host forcing affinity can hurt more than it helps.
	PinWorkers bool
	// InitialConfig seeds the control.ConfigStore at construction, e.g.
	// {"fiber.stack_size": 65536, "tcp.connect.timeout": 3*time.Second}.
	InitialConfig map[string]any
	// Registerer receives the metrics exporter's collectors. Nil selects
	// prometheus.DefaultRegisterer.
	Registerer prom.Registerer
}

// DefaultConfig returns a single-threaded, unpinned Runtime configuration.
func DefaultConfig() Config {
	return Config{
		Threads:   1,
		UseCaller: true,
		Name:      "fiberio",
	}
}

// Runtime is the top-level aggregate: an IOManager (Scheduler + Timers)
// plus an FdManager, a Control surface and a metrics Exporter.
type Runtime struct {
	mu      sync.Mutex
	started bool

	io      *ioreactor.Manager
	fds     *fdtable.Manager
	control *controlSurface
	metrics *metrics.Exporter

	cfg Config
}

// New constructs a Runtime without starting it. Call Start to spawn the
// worker pool and begin the idle loop.
func New(cfg Config) (*Runtime, error) {
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}
	if cfg.Name == "" {
		cfg.Name = "fiberio"
	}

	cs := control.NewConfigStore()
	dp := control.NewDebugProbes()
	control.RegisterPlatformProbes(dp)
	ctrl := &controlSurface{ConfigStore: cs, DebugProbes: dp}

	io, err := ioreactor.New(cfg.Threads, cfg.UseCaller, cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("facade: construct ioreactor: %w", err)
	}
	io.Scheduler.StackSize = cs.StackSize()

	fds := fdtable.New()

	exp, err := metrics.New(cfg.Registerer, io, io.Timers, io)
	if err != nil {
		io.Close()
		return nil, fmt.Errorf("facade: construct metrics exporter: %w", err)
	}
	io.Observer = pollObserverAdapter{exp: exp, name: cfg.Name}

	r := &Runtime{io: io, fds: fds, control: ctrl, cfg: cfg, metrics: exp}
	r.registerDebugProbes()

	// fiber.stack_size is re-read into the live scheduler on every
	// config change, so SetConfig calls reach newly spawned workers'
	// callback fibers without a restart — already-created reusable
	// cbFibers keep the stack-size metadata they were built with.
	cs.OnReload(func() {
		io.Scheduler.StackSize = cs.StackSize()
	})

	if len(cfg.InitialConfig) > 0 {
		cs.SetConfig(cfg.InitialConfig)
	}

	return r, nil
}

// pollObserverAdapter bundles a fixed manager name onto metrics.Exporter
// so it satisfies ioreactor.PollObserver (which carries no identity of
// its own) without ioreactor importing metrics directly.
type pollObserverAdapter struct {
	exp  *metrics.Exporter
	name string
}

func (a pollObserverAdapter) ObservePollDuration(d time.Duration) {
	a.exp.ObservePollDuration(a.name, d)
}

func (r *Runtime) registerDebugProbes() {
	r.control.RegisterProbe("scheduler", func() any {
		return map[string]any{
			"active": r.io.ActiveCount(),
			"idle":   r.io.IdleCount(),
		}
	})
	r.control.RegisterProbe("timer", func() any {
		return map[string]any{
			"has_timer":     r.io.Timers.HasTimer(),
			"next_timer_ms": r.io.Timers.NextTimerMs(),
		}
	})
	r.control.RegisterProbe("io", func() any {
		return map[string]any{"pending_events": r.io.PendingEventCount()}
	})
	r.control.RegisterProbe("fd", func() any {
		return map[string]any{"table": "fdtable.Manager (no global count kept)"}
	})
}

// Start spawns the worker pool and begins the idle loop. If PinWorkers
// is set, each worker pins its own OS thread to CPU idx%NumCPU before
// running tasks, via scheduler.Scheduler's own PinWorkers path — best
// effort; a pin failure is logged, not fatal.
func (r *Runtime) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	r.io.Scheduler.PinWorkers = r.cfg.PinWorkers
	r.io.Start()
}

// Stop blocks until every worker has exited, then releases the poller
// and self-pipe. Safe to call once; a second call is a no-op.
func (r *Runtime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	r.started = false
	r.io.Stop()
	if err := r.io.Close(); err != nil {
		logx.Named("facade").Warnw("close ioreactor", "err", err)
	}
}

// Shutdown implements api.GracefulShutdown by delegating to Stop.
func (r *Runtime) Shutdown() error {
	r.Stop()
	return nil
}

// IOManager returns the runtime's Scheduler+IOManager+TimerManager.
func (r *Runtime) IOManager() *ioreactor.Manager { return r.io }

// FdManager returns the runtime's process-wide descriptor registry.
func (r *Runtime) FdManager() *fdtable.Manager { return r.fds }

// Control returns the runtime's combined config+debug surface.
func (r *Runtime) Control() api.Control { return r.control }

// Metrics returns the runtime's Prometheus exporter.
func (r *Runtime) Metrics() *metrics.Exporter { return r.metrics }
