package rpa

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"receitanet-engine/internal/logging"
)

var okButton = Img("botoes", "ok.png")

func TestLocateFallsBackOnce(t *testing.T) {
	env := newTestEnv(t, okButton)
	env.screen.on(env.sess.Path(okButton), func(float64) []Match { return nil })

	ms, r := env.sess.Locate(context.Background(), okButton)
	assert.Equal(t, ImageNotFound, r)
	assert.Empty(t, ms)

	calls := env.screen.callsFor(env.sess.Path(okButton))
	require.Len(t, calls, 2)
	assert.Equal(t, 0.9, calls[0].confidence)
	assert.Equal(t, 0.6, calls[1].confidence)
}

func TestLocateFallbackFinds(t *testing.T) {
	env := newTestEnv(t, okButton)
	env.screen.on(env.sess.Path(okButton), func(conf float64) []Match {
		if conf <= 0.6 {
			return []Match{at(100, 200)}
		}
		return nil
	})

	ms, r := env.sess.Locate(context.Background(), okButton)
	require.Equal(t, Success, r)
	require.Len(t, ms, 1)
	assert.Equal(t, image.Pt(100, 200), ms[0].Center())
}

func TestLocateNoFallbackAtOrBelowFloor(t *testing.T) {
	env := newTestEnv(t, okButton)
	restore := env.sess.SetConfidence(0.6)
	defer restore()

	_, r := env.sess.Locate(context.Background(), okButton)
	assert.Equal(t, ImageNotFound, r)
	assert.Len(t, env.screen.callsFor(env.sess.Path(okButton)), 1)
}

func TestLocateMissingTemplate(t *testing.T) {
	env := newTestEnv(t)

	_, r := env.sess.Locate(context.Background(), okButton)
	assert.Equal(t, FileNotExists, r)
	assert.Empty(t, env.screen.calls, "a missing template must not reach the screen")
	assert.ErrorIs(t, r.Err(), ErrFileNotExists)
}

func TestLocateSwallowsScreenErrors(t *testing.T) {
	env := newTestEnv(t, okButton)
	env.screen.err = errors.New("capture failed")

	_, r := env.sess.Locate(context.Background(), okButton)
	assert.Equal(t, ImageNotFound, r)
}

func TestClickUsesTopmostMatch(t *testing.T) {
	env := newTestEnv(t, okButton)
	env.screen.on(env.sess.Path(okButton), func(float64) []Match {
		return []Match{at(300, 400), at(50, 100), at(10, 100)}
	})

	r := env.sess.Click(context.Background(), okButton)
	require.Equal(t, Success, r)
	assert.Equal(t, []image.Point{{10, 100}}, env.input.clicks)
}

func TestClickInputErrorIsClickFailed(t *testing.T) {
	env := newTestEnv(t, okButton)
	env.screen.on(env.sess.Path(okButton), func(float64) []Match { return []Match{at(1, 1)} })
	env.input.err = errors.New("no display")

	assert.Equal(t, ClickFailed, env.sess.Click(context.Background(), okButton))
}

func TestDoubleClickWaitsStartupDelay(t *testing.T) {
	env := newTestEnv(t, okButton)
	env.screen.on(env.sess.Path(okButton), func(float64) []Match { return []Match{at(5, 5)} })

	require.Equal(t, Success, env.sess.DoubleClick(context.Background(), okButton))
	assert.Equal(t, []time.Duration{3 * time.Second}, env.clock.sleeps)
	assert.Len(t, env.input.doubles, 1)

	env.clock.sleeps = nil
	require.Equal(t, Success, env.sess.DoubleClick(context.Background(), okButton, Quiet()))
	assert.Empty(t, env.clock.sleeps)
}

func TestPreviewDoesNotClick(t *testing.T) {
	env := newTestEnv(t, okButton)
	cfg := env.sess.Config()
	cfg.Preview = true
	sess := NewSession(cfg, env.screen, env.input, WithClock(env.clock))
	env.screen.on(sess.Path(okButton), func(float64) []Match { return []Match{at(7, 8)} })

	require.Equal(t, Success, sess.Click(context.Background(), okButton))
	require.Equal(t, Success, sess.Type(context.Background(), "secret"))
	assert.Empty(t, env.input.clicks)
	assert.Empty(t, env.input.typed)
	assert.Equal(t, []image.Point{{7, 8}}, env.input.moves)
}

func TestClickMissLogsWarning(t *testing.T) {
	env := newTestEnv(t, okButton)
	log := logging.NewTestLogger()
	sess := NewSession(env.sess.Config(), env.screen, env.input, WithClock(env.clock), WithLogger(log.Logger))

	assert.Equal(t, ImageNotFound, sess.Click(context.Background(), okButton))
	log.AssertLogged(t, zapcore.WarnLevel, "target not clicked")

	assert.Equal(t, ImageNotFound, sess.Click(context.Background(), okButton, Quiet()))
	log.AssertLogged(t, zapcore.DebugLevel, "target not clicked")
}

func TestPressRepeats(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, Success, env.sess.Press(context.Background(), "down", 3))
	assert.Equal(t, []string{"down", "down", "down"}, env.input.keys)
}

func TestSelectOptionRetries(t *testing.T) {
	combo := Img("comboboxes/sistemas", "combo.png")
	option := Img("comboboxes/sistemas", "sped_ecf.png")
	env := newTestEnv(t, combo, option)
	env.screen.on(env.sess.Path(combo), func(float64) []Match { return []Match{at(20, 20)} })

	// The option only shows up on the second attempt.
	env.screen.on(env.sess.Path(option), func(float64) []Match {
		if len(env.input.clicks) >= 2 {
			return []Match{at(20, 60)}
		}
		return nil
	})

	r := env.sess.SelectOption(context.Background(), combo, option, 2)
	require.Equal(t, Success, r)
	assert.Equal(t, []image.Point{{20, 20}, {20, 20}, {20, 60}}, env.input.clicks)
}

func TestSelectOptionGivesUp(t *testing.T) {
	combo := Img("comboboxes/sistemas", "combo.png")
	option := Img("comboboxes/sistemas", "missing.png")
	env := newTestEnv(t, combo, option)
	env.screen.on(env.sess.Path(combo), func(float64) []Match { return []Match{at(20, 20)} })

	r := env.sess.SelectOption(context.Background(), combo, option, 2)
	assert.Equal(t, ImageNotFound, r)
	assert.Len(t, env.input.clicks, 2)
}

func TestSelectOptionComboClickFails(t *testing.T) {
	combo := Img("comboboxes/sistemas", "combo.png")
	option := Img("comboboxes/sistemas", "sped_ecf.png")
	env := newTestEnv(t, combo, option)
	env.screen.on(env.sess.Path(combo), func(float64) []Match { return []Match{at(20, 20)} })
	env.screen.on(env.sess.Path(option), func(float64) []Match { return []Match{at(20, 60)} })
	env.input.err = errors.New("pointer stuck")
	start := env.clock.Now()

	r := env.sess.SelectOption(context.Background(), combo, option, 2)
	assert.Equal(t, ClickFailed, r)
	assert.Empty(t, env.screen.callsFor(env.sess.Path(option)))
	assert.Less(t, env.clock.elapsed(start), 10*time.Second)
}

func TestSystemClockSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := SystemClock{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
