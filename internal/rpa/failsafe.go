package rpa

import (
	"context"
	"errors"
	"image"
	"time"
)

// ErrAborted is returned once the pointer has been parked in a screen corner.
var ErrAborted = errors.New("rpa: aborted by failsafe corner")

// FailSafeMargin is how close to a corner, in pixels, the pointer must be.
const FailSafeMargin = 2

// InCorner reports whether p lies within margin pixels of a corner of a
// screen of the given size.
func InCorner(p, size image.Point, margin int) bool {
	if size.X <= 0 || size.Y <= 0 {
		return false
	}
	nearX := p.X <= margin || p.X >= size.X-1-margin
	nearY := p.Y <= margin || p.Y >= size.Y-1-margin
	return nearX && nearY
}

// WatchFailSafe samples the pointer every interval and returns ErrAborted as
// soon as it sits in a corner. It returns nil when ctx ends first.
func WatchFailSafe(ctx context.Context, ptr Pointer, interval time.Duration) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if InCorner(ptr.Position(), ptr.ScreenSize(), FailSafeMargin) {
				return ErrAborted
			}
		}
	}
}
