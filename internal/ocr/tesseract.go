/**
 * Tesseract OCR engine
 *
 * Local, offline recognition via gosseract. Used as the default engine and
 * as the fallback when the remote engine is unavailable.
 */

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine runs OCR locally through the Tesseract library
type TesseractEngine struct {
	languages []string
}

// NewTesseractEngine creates a Tesseract engine for the given language set,
// e.g. "chi_sim+eng"
func NewTesseractEngine(languages string) *TesseractEngine {
	langs := strings.Split(languages, "+")
	if len(langs) == 0 || langs[0] == "" {
		langs = []string{"chi_sim", "eng"}
	}
	return &TesseractEngine{languages: langs}
}

// Name identifies the engine
func (t *TesseractEngine) Name() string {
	return "tesseract"
}

// Recognize runs Tesseract on the image and returns line-level fragments
func (t *TesseractEngine) Recognize(ctx context.Context, image []byte) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, fmt.Errorf("failed to set languages: %w", err)
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	page := &Page{Engine: t.Name()}

	// Line-level boxes carry per-line confidence; fall back to plain text
	// extraction when box parsing fails.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err == nil && len(boxes) > 0 {
		for _, b := range boxes {
			text := strings.TrimSpace(b.Word)
			if text == "" {
				continue
			}
			box := [4][2]float64{
				{float64(b.Box.Min.X), float64(b.Box.Min.Y)},
				{float64(b.Box.Max.X), float64(b.Box.Min.Y)},
				{float64(b.Box.Max.X), float64(b.Box.Max.Y)},
				{float64(b.Box.Min.X), float64(b.Box.Max.Y)},
			}
			page.Records = append(page.Records, NewTextRecord(text, b.Confidence/100.0, box))
		}
		return page, nil
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	confidence := estimateConfidence(text)
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// No geometry available on this path; stack synthetic unit-height
		// rows so downstream ordering still holds.
		y := float64(i)
		box := [4][2]float64{{0, y}, {1, y}, {1, y + 1}, {0, y + 1}}
		page.Records = append(page.Records, NewTextRecord(line, confidence, box))
	}

	return page, nil
}

// estimateConfidence derives a rough confidence from text quality when
// Tesseract gives no per-line scores
func estimateConfidence(text string) float64 {
	confidence := 0.5

	if len(text) > 200 {
		confidence += 0.1
	}

	// CJK and digit density as a proxy for a clean scan of claim documents
	meaningful := 0
	total := 0
	for _, r := range text {
		if r == ' ' || r == '\n' {
			continue
		}
		total++
		if (r >= 0x4e00 && r <= 0x9fff) || (r >= '0' && r <= '9') {
			meaningful++
		}
	}
	if total > 0 {
		ratio := float64(meaningful) / float64(total)
		if ratio > 0.5 {
			confidence += 0.15
		}
	}

	if confidence > 0.85 {
		confidence = 0.85
	}

	return confidence
}
