package files

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrNotSettled is returned when the folder kept changing until the deadline.
var ErrNotSettled = errors.New("files: download folder still changing")

// WaitQuiet blocks until dir has seen no filesystem event for quiet, or
// returns ErrNotSettled once limit has passed.
func WaitQuiet(ctx context.Context, dir string, quiet, limit time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("files: watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("files: watch %s: %w", dir, err)
	}

	idle := time.NewTimer(quiet)
	defer idle.Stop()
	deadline := time.NewTimer(limit)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrNotSettled
		case <-idle.C:
			return nil
		case _, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(quiet)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("files: watch %s: %w", dir, err)
		}
	}
}
