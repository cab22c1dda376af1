package eartag

import (
	"testing"

	"github.com/king-song823/orcPig/internal/ocr"
)

func testPage(lines ...string) *ocr.Page {
	p := &ocr.Page{Engine: "test"}
	for i, line := range lines {
		y := float64(i * 10)
		box := [4][2]float64{{0, y}, {100, y}, {100, y + 10}, {0, y + 10}}
		p.Records = append(p.Records, ocr.NewTextRecord(line, 0.9, box))
	}
	return p
}

func TestExtractBothWidths(t *testing.T) {
	p := testPage(
		"1520321",
		"10900830",
		"拍摄时间 2024-05-01 08:30",
	)

	got := Extract(p)

	if got.Tag7 != "1520321" {
		t.Errorf("Tag7 = %q, want 1520321", got.Tag7)
	}
	if got.Tag8 != "10900830" {
		t.Errorf("Tag8 = %q, want 10900830", got.Tag8)
	}
	if got.Tag7Backfilled || got.Tag8Backfilled {
		t.Error("directly read tags must not be flagged as backfilled")
	}
}

func TestExtractBackfill(t *testing.T) {
	t.Run("seven to eight", func(t *testing.T) {
		got := Extract(testPage("1520321"))
		if got.Tag8 != "15203210" || !got.Tag8Backfilled {
			t.Errorf("Tag8 = %q (backfilled=%v), want appended zero", got.Tag8, got.Tag8Backfilled)
		}
	})

	t.Run("eight to seven", func(t *testing.T) {
		got := Extract(testPage("10900830"))
		if got.Tag7 != "1090083" || !got.Tag7Backfilled {
			t.Errorf("Tag7 = %q (backfilled=%v), want truncated", got.Tag7, got.Tag7Backfilled)
		}
	})
}

func TestExtractRejectsDateLike(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"yyyymmdd", "20240501"},
		{"recent year prefix", "2024050"},
		{"watermark line", "拍摄时间 1234567"},
		{"camera vendor", "相机 7654321"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(testPage(tt.line))
			if got.Tag7 != "" || got.Tag8 != "" {
				t.Errorf("line %q produced tags %+v", tt.line, got)
			}
		})
	}
}

func TestExtractPrefersLeadingOne(t *testing.T) {
	p := testPage(
		"9876543",
		"1520321",
	)

	got := Extract(p)

	if got.Tag7 != "1520321" {
		t.Errorf("Tag7 = %q, want the tag starting with 1", got.Tag7)
	}
}

func TestExtractDigitRatio(t *testing.T) {
	// Too many letters to be a tag
	got := Extract(testPage("AB12CD34"))
	if got.Tag8 != "" {
		t.Errorf("Tag8 = %q, want rejection on digit ratio", got.Tag8)
	}
}

func TestResultTags(t *testing.T) {
	r := Result{Tag7: "1520321", Tag8: "15203210", Tag8Backfilled: true}
	tags := r.Tags()
	if len(tags) != 1 || tags[0] != "1520321" {
		t.Errorf("Tags() = %v, want only the directly read tag", tags)
	}
}
