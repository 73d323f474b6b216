package scheduler

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// acquireSingleInstance takes an exclusive, non-blocking lock on
// <dataDir>/scheduler.lock so only one Scheduler ever runs against a
// given data directory at a time; the lock is released on process
// exit or when the returned flock.Flock is closed.
func acquireSingleInstance(dataDir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dataDir, "scheduler.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking scheduler instance: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another scheduler instance already holds the lock in %s", dataDir)
	}
	return lock, nil
}
