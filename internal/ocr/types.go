package ocr

import "strings"

// TextRecord is a single recognized text fragment with its geometry.
// Box corners are ordered top-left, top-right, bottom-right, bottom-left.
type TextRecord struct {
	Text    string
	Score   float64
	Box     [4][2]float64
	CenterX float64
	CenterY float64
	Width   float64
	Height  float64
}

// NewTextRecord builds a record and derives center and size from the box
func NewTextRecord(text string, score float64, box [4][2]float64) TextRecord {
	minX, minY := box[0][0], box[0][1]
	maxX, maxY := minX, minY
	for _, p := range box[1:] {
		if p[0] < minX {
			minX = p[0]
		}
		if p[0] > maxX {
			maxX = p[0]
		}
		if p[1] < minY {
			minY = p[1]
		}
		if p[1] > maxY {
			maxY = p[1]
		}
	}
	return TextRecord{
		Text:    text,
		Score:   score,
		Box:     box,
		CenterX: (minX + maxX) / 2,
		CenterY: (minY + maxY) / 2,
		Width:   maxX - minX,
		Height:  maxY - minY,
	}
}

// Page holds all recognized fragments of one image, in reading order
type Page struct {
	Records []TextRecord
	Engine  string
}

// Lines returns the fragment texts in reading order
func (p *Page) Lines() []string {
	lines := make([]string, 0, len(p.Records))
	for _, r := range p.Records {
		lines = append(lines, r.Text)
	}
	return lines
}

// Text joins all fragments with newlines
func (p *Page) Text() string {
	return strings.Join(p.Lines(), "\n")
}
