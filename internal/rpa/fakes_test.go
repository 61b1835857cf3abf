package rpa

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type searchCall struct {
	path       string
	confidence float64
}

// fakeScreen answers LocateAll from a per-file function of the confidence.
type fakeScreen struct {
	mu      sync.Mutex
	answers map[string]func(conf float64) []Match
	calls   []searchCall
	err     error
}

func newFakeScreen() *fakeScreen {
	return &fakeScreen{answers: map[string]func(float64) []Match{}}
}

func (f *fakeScreen) on(path string, fn func(conf float64) []Match) {
	f.answers[path] = fn
}

func (f *fakeScreen) LocateAll(_ context.Context, p string, conf float64) ([]Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, searchCall{path: p, confidence: conf})
	if f.err != nil {
		return nil, f.err
	}
	fn, ok := f.answers[p]
	if !ok {
		return nil, nil
	}
	ms := fn(conf)
	out := make([]Match, len(ms))
	copy(out, ms)
	return out, nil
}

func (f *fakeScreen) callsFor(p string) []searchCall {
	var out []searchCall
	for _, c := range f.calls {
		if c.path == p {
			out = append(out, c)
		}
	}
	return out
}

type fakeInput struct {
	clicks  []image.Point
	doubles []image.Point
	moves   []image.Point
	typed   []string
	keys    []string
	err     error
}

func (f *fakeInput) Move(p image.Point) error { f.moves = append(f.moves, p); return f.err }

func (f *fakeInput) Click(p image.Point) error {
	if f.err != nil {
		return f.err
	}
	f.clicks = append(f.clicks, p)
	return nil
}

func (f *fakeInput) DoubleClick(p image.Point, _ time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.doubles = append(f.doubles, p)
	return nil
}

func (f *fakeInput) Type(text string, _ time.Duration) error {
	f.typed = append(f.typed, text)
	return f.err
}

func (f *fakeInput) Press(key string) error {
	f.keys = append(f.keys, key)
	return f.err
}

// fakeClock advances only when slept on.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) elapsed(from time.Time) time.Duration { return c.now.Sub(from) }

// at returns a match whose center is (x, y).
func at(x, y int) Match {
	return Match{Rect: image.Rect(x-10, y-5, x+10, y+5)}
}

// touchTemplates creates empty template files under a temp images root.
func touchTemplates(t *testing.T, imgs ...Image) string {
	t.Helper()
	root := t.TempDir()
	for _, img := range imgs {
		p := filepath.Join(root, filepath.FromSlash(img.Alias), img.File)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("png"), 0o644))
	}
	return root
}

type testEnv struct {
	screen *fakeScreen
	input  *fakeInput
	clock  *fakeClock
	sess   *Session
}

func newTestEnv(t *testing.T, imgs ...Image) *testEnv {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ImagesDir = touchTemplates(t, imgs...)
	cfg.ActionsPerSecond = 0
	env := &testEnv{screen: newFakeScreen(), input: &fakeInput{}, clock: newFakeClock()}
	env.sess = NewSession(cfg, env.screen, env.input, WithClock(env.clock))
	return env
}
