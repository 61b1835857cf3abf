package rpa

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WaitFor polls until img is visible or timeout elapses. Once more than half
// of the timeout has passed the search drops to the fallback confidence for
// the rest of the wait. A cancelled ctx ends the wait with ImageNotFound.
func (s *Session) WaitFor(ctx context.Context, img Image, timeout time.Duration) Result {
	if !s.Exists(img) {
		s.log.Warn("template file missing", zap.String("path", s.Path(img)))
		return FileNotExists
	}
	poll := s.cfg.PollInterval
	if poll <= 0 {
		poll = time.Second
	}

	start := s.clock.Now()
	conf := s.confidence
	degraded := false
	for {
		elapsed := s.clock.Now().Sub(start)
		if !degraded && elapsed > timeout/2 && conf > s.cfg.FallbackConfidence {
			degraded = true
			conf = s.cfg.FallbackConfidence
			s.log.Debug("wait degraded to fallback confidence",
				zap.Stringer("image", img), zap.Duration("elapsed", elapsed))
		}
		if len(s.find(ctx, img, conf)) > 0 {
			return Success
		}
		if elapsed >= timeout {
			s.log.Info("wait timed out", zap.Stringer("image", img), zap.Duration("timeout", timeout))
			return ImageNotFound
		}
		if err := s.clock.Sleep(ctx, poll); err != nil {
			s.log.Info("wait aborted", zap.Stringer("image", img), zap.Error(err))
			return ImageNotFound
		}
	}
}

// WaitGone polls until img is no longer visible, up to timeout.
func (s *Session) WaitGone(ctx context.Context, img Image, timeout time.Duration) Result {
	if !s.Exists(img) {
		return FileNotExists
	}
	poll := s.cfg.PollInterval
	if poll <= 0 {
		poll = time.Second
	}
	start := s.clock.Now()
	for {
		if len(s.find(ctx, img, s.confidence)) == 0 {
			return Success
		}
		if s.clock.Now().Sub(start) >= timeout {
			return ImageNotFound
		}
		if err := s.clock.Sleep(ctx, poll); err != nil {
			return ImageNotFound
		}
	}
}
