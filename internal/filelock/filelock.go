// Package filelock provides file locking and locked append operations so
// concurrent stage workers (and concurrent runs) can safely share output
// files.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileLock wraps a flock file lock for coordinating access to files.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// New creates a file lock guarding the given path. The lock file itself
// is created beside the guarded file as <path>.lock.
func New(path string) *FileLock {
	lockPath := path + ".lock"
	return &FileLock{
		flock: flock.New(lockPath),
		path:  path,
	}
}

// Lock acquires an exclusive lock, blocking until it is available.
func (fl *FileLock) Lock() error {
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock for %s: %w", fl.path, err)
	}
	return nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock for %s: %w", fl.path, err)
	}
	return nil
}

// Append appends data to the guarded file under the exclusive lock,
// creating the file and its parent directory if needed. Writers in other
// processes holding the same lock are serialized, so appended blocks
// never interleave.
func (fl *FileLock) Append(data []byte) error {
	dir := filepath.Dir(fl.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := fl.Lock(); err != nil {
		return err
	}
	defer fl.Unlock()

	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fl.path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append to %s: %w", fl.path, err)
	}
	return nil
}
