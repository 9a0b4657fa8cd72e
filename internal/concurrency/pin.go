//go:build !windows && !linux
// +build !windows,!linux

// hioload-ws/internal/concurrency/pin.go
// Author: momentics <momentics@gmail.com>
//
// Generic no-op fallback for platforms with neither a Linux nor a Windows
// pinning implementation (pin_linux.go, pin_linux_nocgo.go, pin_windows.go
// cover those two).

package concurrency

// PinCurrentThread pins the current OS thread to a given CPU core.
// No-op on platforms without a dedicated implementation.
func PinCurrentThread(numaNode int, cpuID int) {}
