// File: internal/logx/logx.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide structured logger shared by every package in the module.
// Mirrors the single zap.Logger-per-process pattern, with named children
// handed out per subsystem instead of ad-hoc log.Printf calls.

package logx

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once  sync.Once
	base  *zap.Logger
	sugar *zap.SugaredLogger
)

func init() {
	base, _ = zap.NewProduction()
	if base == nil {
		base = zap.NewNop()
	}
	sugar = base.Sugar()
}

// Named returns a SugaredLogger scoped to component, e.g. "scheduler", "ioreactor".
func Named(component string) *zap.SugaredLogger {
	return sugar.Named(component)
}

// Replace swaps the process-wide base logger, e.g. to install a development
// logger in tests. Safe to call once at program/test init.
func Replace(l *zap.Logger) {
	once.Do(func() {})
	base = l
	sugar = l.Sugar()
}

// Sync flushes buffered log entries; call on process shutdown.
func Sync() {
	_ = sugar.Sync()
}
