package observer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// Lock is an exclusive lock held by a running watcher
type Lock struct {
	f *flock.Flock
}

// AcquireLock takes an exclusive file lock named after name in dir so only
// one watcher runs per project directory.
func AcquireLock(dir, name string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f := flock.New(filepath.Join(dir, lockFileName(name)))
	locked, err := f.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another watcher is already running for %s", name)
	}
	return &Lock{f: f}, nil
}

// Path returns the lock file path
func (l *Lock) Path() string { return l.f.Path() }

// Release releases the lock
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Unlock()
}

// lockFileName turns a directory path into a flat file name
func lockFileName(name string) string {
	r := strings.NewReplacer(string(filepath.Separator), "_", ":", "_", " ", "_")
	return "watch-" + strings.Trim(r.Replace(name), "_") + ".lock"
}
