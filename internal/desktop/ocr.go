package desktop

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/go-vgo/robotgo"
	"github.com/otiai10/gosseract/v2"

	"receitanet-engine/internal/rpa"
)

// TextReader finds words on a screen capture with Tesseract.
type TextReader struct {
	Language string
	// MinConfidence drops words Tesseract is unsure about, 0 to 100.
	MinConfidence float64
}

func NewTextReader(language string) *TextReader {
	if language == "" {
		language = "por"
	}
	return &TextReader{Language: language, MinConfidence: 60}
}

// LocateText returns the boxes of every word equal to text.
func (t *TextReader) LocateText(ctx context.Context, text string) ([]rpa.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := robotgo.CaptureImg()
	if err != nil {
		return nil, fmt.Errorf("desktop: capture: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("desktop: encode capture: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(t.Language); err != nil {
		return nil, fmt.Errorf("desktop: ocr language %q: %w", t.Language, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("desktop: ocr image: %w", err)
	}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("desktop: ocr: %w", err)
	}

	w, h := robotgo.GetScreenSize()
	b := img.Bounds()
	var out []rpa.Match
	for _, bb := range boxes {
		if bb.Confidence < t.MinConfidence || normalizeWord(bb.Word) != text {
			continue
		}
		out = append(out, rpa.Match{Rect: scale(bb.Box, image.Pt(b.Dx(), b.Dy()), image.Pt(w, h))})
	}
	return out, nil
}

// normalizeWord fixes the usual OCR slips in a dd/mm/yyyy cell.
func normalizeWord(w string) string {
	w = strings.TrimSpace(w)
	w = strings.Trim(w, "|[](){}.,;:")
	return strings.NewReplacer("O", "0", "o", "0", "l", "1", "I", "1", "\\", "/").Replace(w)
}
