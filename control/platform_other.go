//go:build !linux && !windows
// +build !linux,!windows

// control/platform_other.go
// Author: momentics <momentics@gmail.com>
//
// Platforms with neither the Linux nor the Windows probe set get none;
// mirrors affinity/affinity_stub.go's degrade-gracefully shape.

package control

// RegisterPlatformProbes is a no-op on unsupported platforms.
func RegisterPlatformProbes(dp *DebugProbes) {}
