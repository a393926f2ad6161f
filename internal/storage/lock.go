package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const (
	lockTimeout  = 30 * time.Second
	lockInterval = 250 * time.Millisecond
)

// withFileLock runs fn while holding an exclusive advisory lock on path.
// The lock is taken on the target file itself (created if absent), so every
// writer in any process contends on the same inode. Lock acquisition polls
// until lockTimeout elapses, matching the behavior agents expect when several
// of them append to the same log.
func withFileLock(path string, fn func() error) error {
	if parent := filepath.Dir(path); parent != "." {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", parent, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s for locking: %w", path, err)
	}
	defer f.Close()

	deadline := time.Now().Add(lockTimeout)
	for {
		err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if err != syscall.EWOULDBLOCK && err != syscall.EAGAIN {
			return fmt.Errorf("locking %s: %w", path, err)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for lock on %s", path)
		}
		time.Sleep(lockInterval)
	}
	defer func() { _ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN) }()

	return fn()
}
