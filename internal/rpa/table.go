package rpa

import (
	"context"

	"go.uber.org/zap"
)

const (
	DefaultColumnHalfWidth = 47
	DefaultRowBand         = 36
	DefaultWideRowBand     = 72
)

// Candidates produces the row matches the walk chooses from.
type Candidates func(ctx context.Context) ([]Match, Result)

// TemplateCandidates returns every match of img at the session confidence.
// Rows are looked up without fallback so a neighbouring month is not taken
// for the requested one.
func TemplateCandidates(s *Session, img Image) Candidates {
	return func(ctx context.Context) ([]Match, Result) {
		return s.LocateExact(ctx, img)
	}
}

// TextCandidates returns every occurrence of text found by OCR.
func TextCandidates(tl TextLocator, text string) Candidates {
	return func(ctx context.Context) ([]Match, Result) {
		ms, err := tl.LocateText(ctx, text)
		if err != nil || len(ms) == 0 {
			return nil, ImageNotFound
		}
		return ms, Success
	}
}

// TableWalk clicks rows of one table column top to bottom. It remembers the
// Y of the last clicked row so each call only considers rows below it.
type TableWalk struct {
	// Anchors locate the column header, tried in order.
	Anchors []Image
	// Column is the half width of the accepted band around the anchor X.
	Column int
	// Band is the first vertical window below the cursor, WideBand the retry.
	Band     int
	WideBand int

	cursor int
	set    bool
}

func NewTableWalk(anchors ...Image) *TableWalk {
	return &TableWalk{
		Anchors:  anchors,
		Column:   DefaultColumnHalfWidth,
		Band:     DefaultRowBand,
		WideBand: DefaultWideRowBand,
	}
}

// Reset forgets the last clicked row. Call it when a new batch starts and
// whenever the table has scrolled.
func (w *TableWalk) Reset() {
	w.cursor, w.set = 0, false
}

// Cursor returns the Y of the last clicked row, if any.
func (w *TableWalk) Cursor() (int, bool) { return w.cursor, w.set }

func (w *TableWalk) anchorX(ctx context.Context, s *Session) (int, Result) {
	missing := 0
	for _, a := range w.Anchors {
		ms, r := s.Locate(ctx, a)
		switch r {
		case Success:
			return ms[0].Center().X, Success
		case FileNotExists:
			missing++
		}
	}
	if len(w.Anchors) > 0 && missing == len(w.Anchors) {
		return 0, FileNotExists
	}
	return 0, ImageNotFound
}

// ClickNext clicks the next row below the cursor among the candidates. name
// labels the row in logs.
func (w *TableWalk) ClickNext(ctx context.Context, s *Session, name string, find Candidates) Result {
	x, r := w.anchorX(ctx, s)
	if r != Success {
		s.log.Warn("column anchor not found", zap.String("row", name), zap.Stringer("result", r))
		return r
	}
	ms, r := find(ctx)
	if r != Success {
		s.log.Warn("row not found", zap.String("row", name), zap.Stringer("result", r))
		return r
	}

	m, ok := PickRow(ms, x, w.cursor, w.set, w.Column, w.Band)
	if !ok && w.set && w.WideBand > w.Band {
		m, ok = PickRow(ms, x, w.cursor, w.set, w.Column, w.WideBand)
	}
	if !ok {
		s.log.Warn("no row inside the column window",
			zap.String("row", name), zap.Int("anchor_x", x), zap.Int("cursor", w.cursor), zap.Bool("cursor_set", w.set))
		return ImageNotFound
	}

	p := m.Center()
	if res := s.ClickAt(ctx, name, p); res != Success {
		return res
	}
	w.cursor, w.set = p.Y, true
	return Success
}

// PickRow selects the topmost match whose center lies within column pixels
// of anchorX and, when set, within (cursor, cursor+band].
func PickRow(ms []Match, anchorX, cursor int, set bool, column, band int) (Match, bool) {
	var (
		best  Match
		found bool
	)
	for _, m := range ms {
		c := m.Center()
		if c.X < anchorX-column || c.X > anchorX+column {
			continue
		}
		if set && (c.Y < cursor+1 || c.Y > cursor+band) {
			continue
		}
		if !found || c.Y < best.Center().Y {
			best, found = m, true
		}
	}
	return best, found
}
