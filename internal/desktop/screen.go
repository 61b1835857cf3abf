// Package desktop connects the automation session to the real display:
// robotgo for capture and input, gocv for template matching and gosseract
// for reading dates off the screen.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/go-vgo/robotgo"
	"gocv.io/x/gocv"

	"receitanet-engine/internal/rpa"
)

var ErrTemplateUnreadable = errors.New("desktop: template image unreadable")

// Screen finds templates on a fresh capture of the primary display.
type Screen struct {
	mu    sync.Mutex
	cache map[string]gocv.Mat
}

func NewScreen() *Screen {
	return &Screen{cache: map[string]gocv.Mat{}}
}

// Close releases the cached templates.
func (s *Screen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, m := range s.cache {
		m.Close()
		delete(s.cache, k)
	}
	return nil
}

func (s *Screen) template(path string) (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.cache[path]; ok {
		return m, nil
	}
	m := gocv.IMRead(path, gocv.IMReadGrayScale)
	if m.Empty() {
		m.Close()
		return gocv.Mat{}, fmt.Errorf("%w: %s", ErrTemplateUnreadable, path)
	}
	s.cache[path] = m
	return m, nil
}

// capture grabs the whole screen as a grayscale Mat.
func capture() (gocv.Mat, image.Point, error) {
	img, err := robotgo.CaptureImg()
	if err != nil {
		return gocv.Mat{}, image.Point{}, fmt.Errorf("desktop: capture: %w", err)
	}
	bgr, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, image.Point{}, fmt.Errorf("desktop: convert capture: %w", err)
	}
	defer bgr.Close()
	gray := gocv.NewMat()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)
	b := img.Bounds()
	return gray, image.Pt(b.Dx(), b.Dy()), nil
}

// LocateAll returns every non-overlapping occurrence of the template whose
// normalized correlation is at least confidence.
func (s *Screen) LocateAll(ctx context.Context, templatePath string, confidence float64) ([]rpa.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tmpl, err := s.template(templatePath)
	if err != nil {
		return nil, err
	}
	shot, size, err := capture()
	if err != nil {
		return nil, err
	}
	defer shot.Close()
	if shot.Cols() < tmpl.Cols() || shot.Rows() < tmpl.Rows() {
		return nil, nil
	}

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(shot, tmpl, &result, gocv.TmCcoeffNormed, mask)

	scores, err := result.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("desktop: match scores: %w", err)
	}
	found := suppress(peaks(scores, result.Cols(), float32(confidence)), tmpl.Cols(), tmpl.Rows())

	w, h := robotgo.GetScreenSize()
	out := make([]rpa.Match, 0, len(found))
	for _, r := range found {
		out = append(out, rpa.Match{Rect: scale(r, size, image.Pt(w, h))})
	}
	return out, nil
}
