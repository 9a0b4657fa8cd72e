// File: metrics/exporter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Exporter adapts the runtime's live counters to Prometheus collectors,
// the same shape as the task-runner pack's MetricsExporter
// (Swind-go-task-runner/observability/prometheus/metrics_exporter.go):
// construct typed collectors, register them once against a Registerer,
// and tolerate re-registration the same way registerCollector does. The
// task-runner exporter is push-based (Record* methods called at the
// instrumentation site); ours is pull-based GaugeFunc collectors reading
// live atomic counters already exposed by fiber/scheduler/timer/ioreactor,
// since those packages already track exactly the numbers this exporter
// needs without any additional bookkeeping. The one genuinely
// push-based metric, poll duration, is recorded by ioreactor around its
// poller.Wait call via Exporter.ObservePollDuration.
package metrics

import (
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/fiberio/api"
	"github.com/momentics/fiberio/fiber"
)

// Exporter registers and owns every fiberio_* collector.
type Exporter struct {
	activeFibers     prom.GaugeFunc
	schedulerActive  prom.GaugeFunc
	schedulerIdle    prom.GaugeFunc
	timerPending     prom.GaugeFunc
	ioPendingEvents  prom.GaugeFunc
	ioPollDurationS  *prom.HistogramVec
}

// New constructs and registers the exporter's collectors against reg
// (prom.DefaultRegisterer if nil). sched and timers back the
// scheduler/timer gauges; io may be nil (no IOManager in play), in
// which case fiberio_io_pending_events always reads 0.
func New(reg prom.Registerer, sched api.Scheduler, timers api.TimerManager, io api.IOManager) (*Exporter, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	e := &Exporter{}

	e.activeFibers = prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: "fiberio",
		Name:      "active_fibers",
		Help:      "Number of fiber goroutines currently live.",
	}, func() float64 { return float64(fiber.LiveCount()) })

	e.schedulerActive = prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: "fiberio",
		Subsystem: "scheduler",
		Name:      "active_count",
		Help:      "Number of workers currently executing a task.",
	}, func() float64 {
		if sched == nil {
			return 0
		}
		return float64(sched.ActiveCount())
	})

	e.schedulerIdle = prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: "fiberio",
		Subsystem: "scheduler",
		Name:      "idle_count",
		Help:      "Number of workers currently parked idle.",
	}, func() float64 {
		if sched == nil {
			return 0
		}
		return float64(sched.IdleCount())
	})

	e.timerPending = prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: "fiberio",
		Subsystem: "timer",
		Name:      "pending",
		Help:      "1 if at least one timer is currently registered, else 0.",
	}, func() float64 {
		if timers == nil || !timers.HasTimer() {
			return 0
		}
		return 1
	})

	e.ioPendingEvents = prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: "fiberio",
		Subsystem: "io",
		Name:      "pending_events",
		Help:      "Number of currently armed (fd, direction) event registrations.",
	}, func() float64 {
		if io == nil {
			return 0
		}
		return float64(io.PendingEventCount())
	})

	e.ioPollDurationS = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "fiberio",
		Subsystem: "io",
		Name:      "poll_duration_seconds",
		Help:      "Time spent blocked in the readiness poller per idle-loop iteration.",
		Buckets:   prom.DefBuckets,
	}, []string{"manager"})

	for _, c := range []prom.Collector{e.activeFibers, e.schedulerActive, e.schedulerIdle, e.timerPending, e.ioPendingEvents, e.ioPollDurationS} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ObservePollDuration records how long one poller.Wait call blocked,
// labeled by the calling IOManager's name.
func (e *Exporter) ObservePollDuration(managerName string, d time.Duration) {
	if e == nil {
		return
	}
	e.ioPollDurationS.WithLabelValues(managerName).Observe(d.Seconds())
}

func registerCollector(reg prom.Registerer, c prom.Collector) error {
	err := reg.Register(c)
	if err == nil {
		return nil
	}
	var already prom.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return fmt.Errorf("metrics: register collector: %w", err)
}
