// File: facade/runtime_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/fiberio/ioreactor"
)

func newTestRuntime(t *testing.T) (*Runtime, func()) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Name = "rt-test"
	r, err := New(cfg)
	if err != nil {
		t.Skipf("no poller implementation on this platform: %v", err)
	}
	return r, func() { r.Stop() }
}

// TestRuntimeStartStopIsIdempotent covers the facade lifecycle: a second
// Start or Stop call must be a harmless no-op.
func TestRuntimeStartStopIsIdempotent(t *testing.T) {
	r, cleanup := newTestRuntime(t)
	defer cleanup()

	r.Start()
	r.Start()
	require.Equal(t, int64(0), r.IOManager().ActiveCount())

	done := make(chan struct{})
	r.IOManager().ScheduleFunc(-1, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled callback never ran through the facade")
	}

	r.Stop()
	r.Stop()
}

// TestRuntimeWiresControlSurface covers that Control() exposes both the
// config and debug halves through one embedded type.
func TestRuntimeWiresControlSurface(t *testing.T) {
	r, cleanup := newTestRuntime(t)
	defer cleanup()

	r.Control().SetConfig(map[string]any{"fiber.stack_size": 65536})
	snap := r.Control().GetSnapshot()
	require.Equal(t, 65536, snap["fiber.stack_size"])

	dump := r.Control().DumpState()
	require.Contains(t, dump, "scheduler")
	require.Contains(t, dump, "timer")
	require.Contains(t, dump, "io")
}

// TestRuntimeDispatchesIOEvent exercises the IOManager surface reachable
// through the facade end to end, mirroring scenario S3 at the Runtime
// aggregate layer rather than against ioreactor.Manager directly.
func TestRuntimeDispatchesIOEvent(t *testing.T) {
	r, cleanup := newTestRuntime(t)
	defer cleanup()
	r.Start()

	rp, wp, err := os.Pipe()
	require.NoError(t, err)
	defer rp.Close()
	defer wp.Close()

	fd := int(rp.Fd())
	fired := make(chan struct{}, 1)
	require.NoError(t, r.IOManager().AddEvent(fd, ioreactor.Read, func() { fired <- struct{}{} }))

	_, err = wp.Write([]byte{1})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("read readiness was not dispatched through the facade")
	}
}
