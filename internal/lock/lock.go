// Package lock keeps a second engine from driving the same screen.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("lock: another run is already in progress")

// Lock is a held instance lock.
type Lock struct {
	f *flock.Flock
}

// Acquire takes the lock file at path without waiting.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("lock: %w", err)
	}
	f := flock.New(path)
	ok, err := f.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock: %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &Lock{f: f}, nil
}

func (l *Lock) Path() string { return l.f.Path() }

func (l *Lock) Release() error {
	return l.f.Unlock()
}
