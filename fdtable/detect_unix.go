//go:build !windows

// File: fdtable/detect_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// fstat-based socket detection and fcntl-based non-blocking control,
// shared by every unix-like platform golang.org/x/sys/unix supports.

package fdtable

import "golang.org/x/sys/unix"

func detectSocket(fd int) (isSocket bool, alreadyNonblock bool) {
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		return false, false
	}
	isSocket = stat.Mode&unix.S_IFMT == unix.S_IFSOCK
	if !isSocket {
		return false, false
	}
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return true, false
	}
	return true, flags&unix.O_NONBLOCK != 0
}

func forceNonblock(fd int) error {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return err
	}
	_, err = unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags|unix.O_NONBLOCK)
	return err
}
