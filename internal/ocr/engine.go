package ocr

import "context"

// Engine recognizes text in a single image
type Engine interface {
	// Name identifies the engine in logs and results
	Name() string

	// Recognize runs OCR on raw image bytes and returns the page fragments
	Recognize(ctx context.Context, image []byte) (*Page, error)
}
