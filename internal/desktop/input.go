package desktop

import (
	"errors"
	"image"
	"time"

	"github.com/go-vgo/robotgo"

	"receitanet-engine/internal/rpa"
)

// ErrFailSafe is returned for every action attempted while the pointer rests
// in a screen corner.
var ErrFailSafe = errors.New("desktop: pointer in a screen corner, automation stopped")

// Pointer reads the live pointer position and screen size.
type Pointer struct{}

func (Pointer) Position() image.Point {
	x, y := robotgo.Location()
	return image.Pt(x, y)
}

func (Pointer) ScreenSize() image.Point {
	w, h := robotgo.GetScreenSize()
	return image.Pt(w, h)
}

// Input drives the real mouse and keyboard.
type Input struct {
	Pointer rpa.Pointer
	// OnFailSafe is called once per refused action, typically to cancel the run.
	OnFailSafe func()
}

func NewInput(onFailSafe func()) *Input {
	return &Input{Pointer: Pointer{}, OnFailSafe: onFailSafe}
}

func (in *Input) guard() error {
	if in.Pointer == nil {
		return nil
	}
	if rpa.InCorner(in.Pointer.Position(), in.Pointer.ScreenSize(), rpa.FailSafeMargin) {
		if in.OnFailSafe != nil {
			in.OnFailSafe()
		}
		return ErrFailSafe
	}
	return nil
}

func (in *Input) Move(p image.Point) error {
	if err := in.guard(); err != nil {
		return err
	}
	robotgo.Move(p.X, p.Y)
	return nil
}

func (in *Input) Click(p image.Point) error {
	if err := in.guard(); err != nil {
		return err
	}
	robotgo.Move(p.X, p.Y)
	robotgo.Click("left")
	return nil
}

func (in *Input) DoubleClick(p image.Point, interval time.Duration) error {
	if err := in.guard(); err != nil {
		return err
	}
	robotgo.Move(p.X, p.Y)
	robotgo.Click("left")
	time.Sleep(interval)
	robotgo.Click("left")
	return nil
}

// Type sends text one character at a time.
func (in *Input) Type(text string, interval time.Duration) error {
	for _, r := range text {
		if err := in.guard(); err != nil {
			return err
		}
		robotgo.TypeStr(string(r))
		time.Sleep(interval)
	}
	return nil
}

func (in *Input) Press(key string) error {
	if err := in.guard(); err != nil {
		return err
	}
	return robotgo.KeyTap(key)
}
