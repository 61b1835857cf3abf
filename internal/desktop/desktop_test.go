package desktop

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeaksAndSuppress(t *testing.T) {
	// 4x3 grid; a strong peak with a weaker neighbour, and a separate hit
	scores := []float32{
		0.95, 0.91, 0.10, 0.10,
		0.10, 0.10, 0.10, 0.10,
		0.10, 0.10, 0.10, 0.92,
	}
	cands := peaks(scores, 4, 0.9)
	require.Len(t, cands, 3)
	assert.Equal(t, image.Pt(3, 2), cands[2].at)

	got := suppress(cands, 2, 2)
	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 2, 2), image.Rect(3, 2, 5, 4)}, got)
}

func TestPeaksNothingAboveThreshold(t *testing.T) {
	assert.Empty(t, peaks([]float32{0.5, 0.6}, 2, 0.9))
	assert.Empty(t, suppress(nil, 5, 5))
}

func TestScale(t *testing.T) {
	r := image.Rect(200, 100, 240, 120)
	assert.Equal(t, image.Rect(100, 50, 120, 60), scale(r, image.Pt(3840, 2160), image.Pt(1920, 1080)))
	assert.Equal(t, r, scale(r, image.Pt(1920, 1080), image.Pt(1920, 1080)))
	assert.Equal(t, r, scale(r, image.Point{}, image.Pt(1920, 1080)))
}

func TestNormalizeWord(t *testing.T) {
	cases := map[string]string{
		"01/03/2024":    "01/03/2024",
		" O1/03/2O24|":  "01/03/2024",
		"0l\\12\\2023,": "01/12/2023",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeWord(in), in)
	}
}

type stillPointer struct{ at, size image.Point }

func (p stillPointer) Position() image.Point   { return p.at }
func (p stillPointer) ScreenSize() image.Point { return p.size }

func TestInputRefusesInCorner(t *testing.T) {
	tripped := 0
	in := &Input{
		Pointer:    stillPointer{at: image.Pt(1919, 0), size: image.Pt(1920, 1080)},
		OnFailSafe: func() { tripped++ },
	}

	assert.ErrorIs(t, in.Click(image.Pt(10, 10)), ErrFailSafe)
	assert.ErrorIs(t, in.Type("abc", 0), ErrFailSafe)
	assert.ErrorIs(t, in.Press("enter"), ErrFailSafe)
	assert.Equal(t, 3, tripped)
}
