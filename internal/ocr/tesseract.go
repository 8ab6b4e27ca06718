package ocr

import (
	"context"
	"fmt"
	"os"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine using the gosseract client. The engine
// value itself is shared across requests; the underlying Tesseract client is
// not safe for concurrent use, so a short-lived client is created per call.
type TesseractEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine for the given
// language list (Tesseract codes, e.g. "eng").
func NewTesseractEngine(languages ...string) *TesseractEngine {
	return &TesseractEngine{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

// Detect runs line-level recognition on the image at imagePath. Zero returned
// fragments means Tesseract found no text; that is not an error here.
func (e *TesseractEngine) Detect(ctx context.Context, imagePath string) ([]Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(imagePath); err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	return fragmentsFromBoxes(boxes), nil
}

func fragmentsFromBoxes(boxes []gosseract.BoundingBox) []Fragment {
	fragments := make([]Fragment, 0, len(boxes))
	for _, b := range boxes {
		fragments = append(fragments, Fragment{
			Text:       b.Word,
			Bounds:     b.Box,
			Confidence: b.Confidence / 100.0,
		})
	}
	return fragments
}
