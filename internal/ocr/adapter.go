/**
 * OCR adapter
 *
 * Owns the configured recognition engines and a global concurrency cap.
 * When more than one engine is enabled their passes are merged record-wise
 * with duplicate suppression.
 */

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/king-song823/orcPig/internal/config"
	pipeerrors "github.com/king-song823/orcPig/internal/errors"
	"github.com/king-song823/orcPig/internal/logging"
)

// Adapter fans an image out to the enabled engines and returns one page
type Adapter struct {
	engines []Engine
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *logging.Logger
}

// NewAdapter builds the engine set selected by OCR_ENGINE
func NewAdapter(cfg *config.Config) (*Adapter, error) {
	var engines []Engine

	switch cfg.OCREngine {
	case config.EngineTesseract:
		engines = append(engines, NewTesseractEngine(cfg.TesseractLangs))
	case config.EngineRemote:
		engines = append(engines, NewRemoteEngine(cfg.RemoteOCRURL, time.Duration(cfg.RemoteOCRTimeout)*time.Millisecond))
	case config.EngineBoth:
		engines = append(engines,
			NewRemoteEngine(cfg.RemoteOCRURL, time.Duration(cfg.RemoteOCRTimeout)*time.Millisecond),
			NewTesseractEngine(cfg.TesseractLangs))
	default:
		return nil, fmt.Errorf("unknown OCR engine: %q", cfg.OCREngine)
	}

	logger := logging.NewLogger("OCRAdapter")
	logger.SetDebug(cfg.Debug)

	return &Adapter{
		engines: engines,
		sem:     semaphore.NewWeighted(int64(cfg.OCRConcurrency)),
		timeout: time.Duration(cfg.OCRTimeoutMs) * time.Millisecond,
		logger:  logger,
	}, nil
}

// Recognize runs every enabled engine on the image under the concurrency
// cap. One engine succeeding is enough; the adapter fails only when all
// engines fail.
func (a *Adapter) Recognize(ctx context.Context, image []byte) (*Page, error) {
	if mime := sniffImageType(image); mime == "" {
		return nil, pipeerrors.NewUnsupportedFormatError("", "unknown")
	}

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for OCR slot: %w", err)
	}
	defer a.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var pages []*Page
	var lastErr error
	for _, engine := range a.engines {
		page, err := engine.Recognize(ctx, image)
		if err != nil {
			a.logger.Warn("Engine failed", "engine", engine.Name(), "error", err)
			lastErr = pipeerrors.NewOCRFailedError("", engine.Name(), err)
			continue
		}
		a.logger.Debug("Engine pass complete", "engine", engine.Name(), "fragments", len(page.Records))
		pages = append(pages, page)
	}

	if len(pages) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no OCR engines configured")
		}
		return nil, lastErr
	}

	return MergePages(pages...), nil
}

// sniffImageType detects the image format from magic bytes. Uploads often
// arrive as application/octet-stream, so the declared type is ignored.
func sniffImageType(data []byte) string {
	if len(data) < 4 {
		return ""
	}

	// JPEG: 0xFF 0xD8 0xFF
	if bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}) {
		return "image/jpeg"
	}

	// PNG: 0x89 'P' 'N' 'G' 0x0D 0x0A 0x1A 0x0A
	if len(data) >= 8 && bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}) {
		return "image/png"
	}

	// WebP: 'R' 'I' 'F' 'F' .... 'W' 'E' 'B' 'P'
	if len(data) > 12 && bytes.HasPrefix(data, []byte("RIFF")) && string(data[8:12]) == "WEBP" {
		return "image/webp"
	}

	// TIFF: little-endian or big-endian header
	if bytes.HasPrefix(data, []byte{0x49, 0x49, 0x2A, 0x00}) || bytes.HasPrefix(data, []byte{0x4D, 0x4D, 0x00, 0x2A}) {
		return "image/tiff"
	}

	// BMP: 'B' 'M'
	if bytes.HasPrefix(data, []byte("BM")) {
		return "image/bmp"
	}

	return ""
}
