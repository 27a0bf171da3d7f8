//go:build !windows

package fsutil

import (
	"os"
	"syscall"
)

// LockFile takes an exclusive advisory lock, blocking until it is available.
func LockFile(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX)
}

// UnlockFile releases the advisory lock.
func UnlockFile(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
