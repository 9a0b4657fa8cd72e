// File: api/control.go
// Package api defines Control interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Config is control.ConfigStore's public surface: a snapshot-read,
// merge-write configuration map with reload notification.
type Config interface {
	GetSnapshot() map[string]any
	SetConfig(cfg map[string]any)
	OnReload(fn func())
}

// Control composes configuration and debug introspection — the combined
// surface facade.Runtime exposes, backed by control.ConfigStore and
// control.DebugProbes respectively (composed via struct embedding, not
// a single concrete type implementing both halves itself).
type Control interface {
	Config
	Debug
}
