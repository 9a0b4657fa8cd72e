// File: fdtable/fdtable_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fdtable

import (
	"os"
	"testing"
	"time"
)

func TestGetAutoCreateClassifiesNonSocket(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	m := New()
	e := m.Get(int(r.Fd()), true)
	if e == nil {
		t.Fatal("Get returned nil entry with autoCreate=true")
	}
	if e.IsSocket() {
		t.Fatal("pipe fd misclassified as a socket")
	}
	if !e.IsInitialized() {
		t.Fatal("entry not marked initialized")
	}
}

func TestGetWithoutAutoCreateReturnsNil(t *testing.T) {
	m := New()
	if e := m.Get(999, false); e != nil {
		t.Fatalf("Get(autoCreate=false) on unknown fd = %v, want nil", e)
	}
}

func TestGetIsIdempotentPerFd(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	m := New()
	e1 := m.Get(int(r.Fd()), true)
	e2 := m.Get(int(r.Fd()), true)
	if e1 != e2 {
		t.Fatal("Get created two distinct entries for the same fd")
	}
}

func TestGrowsPastInitialCapacity(t *testing.T) {
	m := New()
	e := m.Get(1000, true)
	if e == nil || e.Fd() != 1000 {
		t.Fatalf("Get(1000) = %v, want an entry for fd 1000", e)
	}
}

func TestDelMarksClosedAndForgets(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	m := New()
	fd := int(r.Fd())
	e := m.Get(fd, true)
	m.Del(fd)
	if !e.IsClosed() {
		t.Fatal("IsClosed() = false after Del")
	}
	if fresh := m.Get(fd, false); fresh != nil {
		t.Fatal("entry still present after Del")
	}
}

func TestTimeoutRoundTrip(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	m := New()
	e := m.Get(int(r.Fd()), true)
	e.SetRecvTimeout(50 * time.Millisecond)
	e.SetSendTimeout(5000 * time.Millisecond)
	if e.RecvTimeoutMs() != 50 {
		t.Fatalf("RecvTimeoutMs() = %d, want 50", e.RecvTimeoutMs())
	}
	if e.SendTimeoutMs() != 5000 {
		t.Fatalf("SendTimeoutMs() = %d, want 5000", e.SendTimeoutMs())
	}
}
