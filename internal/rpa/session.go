package rpa

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Session is the automation handle for one driven application. It is built
// once by the caller and passed to every workflow step; it is not safe for
// concurrent use because the screen itself is a single shared resource.
type Session struct {
	cfg        Config
	screen     Screen
	input      Input
	clock      Clock
	log        *zap.Logger
	pace       *rate.Limiter
	confidence float64
}

type Option func(*Session)

func WithClock(c Clock) Option { return func(s *Session) { s.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(s *Session) { s.log = l } }

func NewSession(cfg Config, screen Screen, input Input, opts ...Option) *Session {
	limit := rate.Inf
	if cfg.ActionsPerSecond > 0 {
		limit = rate.Limit(cfg.ActionsPerSecond)
	}
	s := &Session{
		cfg:        cfg,
		screen:     screen,
		input:      input,
		clock:      SystemClock{},
		log:        zap.NewNop(),
		pace:       rate.NewLimiter(limit, 1),
		confidence: cfg.Confidence,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.Named("rpa")
	return s
}

func (s *Session) Config() Config { return s.cfg }

func (s *Session) Clock() Clock { return s.clock }

func (s *Session) Logger() *zap.Logger { return s.log }

func (s *Session) Confidence() float64 { return s.confidence }

// SetConfidence changes the primary confidence and returns a func restoring
// the previous value.
func (s *Session) SetConfidence(c float64) (restore func()) {
	prev := s.confidence
	s.confidence = c
	return func() { s.confidence = prev }
}

// Path resolves an image to its file under the images root.
func (s *Session) Path(img Image) string {
	return filepath.Join(s.cfg.ImagesDir, filepath.FromSlash(img.Alias), img.File)
}

// Exists reports whether the template file for img is on disk.
func (s *Session) Exists(img Image) bool {
	st, err := os.Stat(s.Path(img))
	return err == nil && !st.IsDir()
}

func (s *Session) find(ctx context.Context, img Image, confidence float64) []Match {
	ms, err := s.screen.LocateAll(ctx, s.Path(img), confidence)
	if err != nil {
		s.log.Debug("screen search failed", zap.Stringer("image", img), zap.Error(err))
		return nil
	}
	SortMatches(ms)
	return ms
}

// Locate returns every visible occurrence of img, retrying once at the
// fallback confidence when the primary search finds nothing.
func (s *Session) Locate(ctx context.Context, img Image) ([]Match, Result) {
	if !s.Exists(img) {
		s.log.Warn("template file missing", zap.String("path", s.Path(img)))
		return nil, FileNotExists
	}
	ms := s.find(ctx, img, s.confidence)
	if len(ms) == 0 && s.confidence > s.cfg.FallbackConfidence {
		s.log.Debug("retrying with fallback confidence",
			zap.Stringer("image", img), zap.Float64("confidence", s.cfg.FallbackConfidence))
		ms = s.find(ctx, img, s.cfg.FallbackConfidence)
	}
	if len(ms) == 0 {
		return nil, ImageNotFound
	}
	return ms, Success
}

// LocateExact searches once at the primary confidence, without fallback.
func (s *Session) LocateExact(ctx context.Context, img Image) ([]Match, Result) {
	if !s.Exists(img) {
		s.log.Warn("template file missing", zap.String("path", s.Path(img)))
		return nil, FileNotExists
	}
	ms := s.find(ctx, img, s.confidence)
	if len(ms) == 0 {
		return nil, ImageNotFound
	}
	return ms, Success
}

// Visible is a single quiet check at the primary confidence.
func (s *Session) Visible(ctx context.Context, img Image) bool {
	if !s.Exists(img) {
		return false
	}
	return len(s.find(ctx, img, s.confidence)) > 0
}

type actOptions struct {
	quiet bool
}

// ActOption changes how a click helper behaves.
type ActOption func(*actOptions)

// Quiet logs misses at debug level and skips the double-click settle delay.
func Quiet() ActOption { return func(o *actOptions) { o.quiet = true } }

func (s *Session) miss(img Image, r Result, o actOptions) {
	if o.quiet {
		s.log.Debug("target not clicked", zap.Stringer("image", img), zap.Stringer("result", r))
		return
	}
	s.log.Warn("target not clicked", zap.Stringer("image", img), zap.Stringer("result", r))
}

// Click single-clicks the first occurrence of img.
func (s *Session) Click(ctx context.Context, img Image, opts ...ActOption) Result {
	var o actOptions
	for _, fn := range opts {
		fn(&o)
	}
	ms, r := s.Locate(ctx, img)
	if r != Success {
		s.miss(img, r, o)
		return r
	}
	if len(ms) > 1 {
		s.log.Debug("multiple occurrences, using the first", zap.Stringer("image", img), zap.Int("count", len(ms)))
	}
	return s.ClickAt(ctx, img.String(), ms[0].Center())
}

// DoubleClick double-clicks the first occurrence of img after the startup delay.
func (s *Session) DoubleClick(ctx context.Context, img Image, opts ...ActOption) Result {
	var o actOptions
	for _, fn := range opts {
		fn(&o)
	}
	if !o.quiet {
		if err := s.clock.Sleep(ctx, s.cfg.StartupDelay); err != nil {
			return ClickFailed
		}
	}
	ms, r := s.Locate(ctx, img)
	if r != Success {
		s.miss(img, r, o)
		return r
	}
	p := ms[0].Center()
	return s.act(ctx, img.String(), p, func() error {
		return s.input.DoubleClick(p, s.cfg.DoubleClickInterval)
	})
}

// ClickAt single-clicks a screen point; name only labels the log line.
func (s *Session) ClickAt(ctx context.Context, name string, p image.Point) Result {
	return s.act(ctx, name, p, func() error { return s.input.Click(p) })
}

func (s *Session) act(ctx context.Context, name string, p image.Point, do func() error) Result {
	if err := s.pace.Wait(ctx); err != nil {
		return ClickFailed
	}
	if s.cfg.Preview {
		s.log.Info("preview: pointer on target", zap.String("target", name), zap.Int("x", p.X), zap.Int("y", p.Y))
		if err := s.input.Move(p); err != nil {
			return ClickFailed
		}
		return Success
	}
	if err := do(); err != nil {
		s.log.Error("pointer action failed", zap.String("target", name), zap.Int("x", p.X), zap.Int("y", p.Y), zap.Error(err))
		return ClickFailed
	}
	s.log.Debug("clicked", zap.String("target", name), zap.Int("x", p.X), zap.Int("y", p.Y))
	return Success
}

// Type writes text at the current focus.
func (s *Session) Type(ctx context.Context, text string) Result {
	if err := s.pace.Wait(ctx); err != nil {
		return ClickFailed
	}
	if s.cfg.Preview {
		s.log.Info("preview: type", zap.Int("chars", len(text)))
		return Success
	}
	if err := s.input.Type(text, s.cfg.TypeInterval); err != nil {
		s.log.Error("typing failed", zap.Error(err))
		return ClickFailed
	}
	return Success
}

// Press taps key the given number of times.
func (s *Session) Press(ctx context.Context, key string, times int) Result {
	for i := 0; i < times; i++ {
		if err := s.pace.Wait(ctx); err != nil {
			return ClickFailed
		}
		if s.cfg.Preview {
			s.log.Info("preview: key", zap.String("key", key))
			continue
		}
		if err := s.input.Press(key); err != nil {
			s.log.Error("key press failed", zap.String("key", key), zap.Error(err))
			return ClickFailed
		}
	}
	return Success
}

// Sleep pauses on the session clock.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	return s.clock.Sleep(ctx, d)
}

// SelectOption opens a combo box and picks an option, trying up to attempts times.
func (s *Session) SelectOption(ctx context.Context, combo, option Image, attempts int) Result {
	if attempts < 1 {
		attempts = 1
	}
	last := ImageNotFound
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := s.clock.Sleep(ctx, time.Second); err != nil {
				return last
			}
		}
		if r := s.WaitFor(ctx, combo, 10*time.Second); r != Success {
			last = r
			continue
		}
		if r := s.Click(ctx, combo); r != Success {
			last = r
			continue
		}
		if r := s.WaitFor(ctx, option, 10*time.Second); r != Success {
			last = r
			continue
		}
		r := s.Click(ctx, option)
		if r == Success {
			return Success
		}
		last = r
	}
	if ctx.Err() != nil {
		return ClickFailed
	}
	return last
}
