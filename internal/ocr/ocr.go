// Package ocr defines the text-detection contract used by the processing
// pipeline and its Tesseract-backed implementation.
package ocr

import (
	"context"
	"image"
	"strings"
)

// Fragment is one detected region of text, in engine-returned order.
type Fragment struct {
	Text       string
	Bounds     image.Rectangle
	Confidence float64
}

// Engine detects text fragments in the image stored at path.
// Implementations must be safe for concurrent use.
type Engine interface {
	Detect(ctx context.Context, imagePath string) ([]Fragment, error)
}

// JoinFragments concatenates fragment text in order with single-space
// separators. Fragments that are empty after trimming are skipped so the
// result never contains doubled separators.
func JoinFragments(fragments []Fragment) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}
