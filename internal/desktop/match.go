package desktop

import (
	"image"
	"sort"
)

type candidate struct {
	at    image.Point
	score float32
}

// suppress keeps the best scoring candidates whose w x h boxes do not
// overlap an already kept box, best first.
func suppress(cands []candidate, w, h int) []image.Rectangle {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	var kept []image.Rectangle
	for _, c := range cands {
		r := image.Rect(c.at.X, c.at.Y, c.at.X+w, c.at.Y+h)
		overlaps := false
		for _, k := range kept {
			if r.Overlaps(k) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, r)
		}
	}
	return kept
}

// peaks returns the positions of a cols-wide score grid at or above min.
func peaks(scores []float32, cols int, min float32) []candidate {
	var out []candidate
	for i, s := range scores {
		if s >= min {
			out = append(out, candidate{at: image.Pt(i%cols, i/cols), score: s})
		}
	}
	return out
}

// scale maps a rectangle from capture pixels to screen points. Captures on
// HiDPI displays are larger than the logical screen.
func scale(r image.Rectangle, capture, screen image.Point) image.Rectangle {
	if capture.X <= 0 || capture.Y <= 0 || screen.X <= 0 || screen.Y <= 0 || capture == screen {
		return r
	}
	f := func(v, from, to int) int { return v * to / from }
	return image.Rect(
		f(r.Min.X, capture.X, screen.X), f(r.Min.Y, capture.Y, screen.Y),
		f(r.Max.X, capture.X, screen.X), f(r.Max.Y, capture.Y, screen.Y),
	)
}
