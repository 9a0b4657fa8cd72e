//go:build windows

// File: fdtable/detect_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// golang.org/x/sys/unix's Fstat/Fcntl are unavailable on Windows; the
// IOManager's poller stub (ioreactor/poller_stub.go) governs there too,
// so fd classification degrades to "not a socket we manage".

package fdtable

func detectSocket(fd int) (isSocket bool, alreadyNonblock bool) { return false, false }

func forceNonblock(fd int) error { return nil }
