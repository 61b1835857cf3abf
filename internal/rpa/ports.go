package rpa

import (
	"context"
	"fmt"
	"image"
	"path"
	"sort"
	"time"
)

// Match is one occurrence of a template (or text) on the live screen.
type Match struct {
	Rect image.Rectangle
}

func (m Match) Center() image.Point {
	return image.Pt(m.Rect.Min.X+m.Rect.Dx()/2, m.Rect.Min.Y+m.Rect.Dy()/2)
}

// SortMatches orders matches top to bottom, then left to right, by center.
func SortMatches(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i].Center(), ms[j].Center()
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}

// Image names a template file by alias folder and file name.
type Image struct {
	Alias string
	File  string
}

func Img(alias, file string) Image { return Image{Alias: alias, File: file} }

func (i Image) String() string { return path.Join(i.Alias, i.File) }

// Screen searches the live display for a template image.
// An empty result with a nil error means the template is not visible.
type Screen interface {
	LocateAll(ctx context.Context, templatePath string, confidence float64) ([]Match, error)
}

// TextLocator finds occurrences of a text on the live display.
type TextLocator interface {
	LocateText(ctx context.Context, text string) ([]Match, error)
}

// Input drives the pointer and keyboard.
type Input interface {
	Move(p image.Point) error
	Click(p image.Point) error
	DoubleClick(p image.Point, interval time.Duration) error
	Type(text string, interval time.Duration) error
	Press(key string) error
}

// Pointer reports where the pointer is and how large the screen is.
type Pointer interface {
	Position() image.Point
	ScreenSize() image.Point
}

// Clock is the time source for every deliberate wait.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("sleep interrupted: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
