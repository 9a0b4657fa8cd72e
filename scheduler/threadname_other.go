//go:build !linux

// File: scheduler/threadname_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// No portable OS-level thread rename outside Linux's PR_SET_NAME; the
// name computed by threadName (scheduler.go) is discarded here.

package scheduler

func setOSThreadName(name string) {}
