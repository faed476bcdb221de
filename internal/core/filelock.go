package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file taken by a running td process.
const LockFileName = ".td.lock"

// ErrAlreadyRunning is returned when another process holds the instance lock.
var ErrAlreadyRunning = errors.New("another td instance is running")

// AcquireInstanceLock takes a non-blocking exclusive lock on the lock file
// in basePath. It returns an unlock function that must be called to release
// the lock, or ErrAlreadyRunning if another process holds it.
func AcquireInstanceLock(basePath string) (unlock func() error, err error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	fl := flock.New(filepath.Join(basePath, LockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring instance lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}

	return fl.Unlock, nil
}
