package idcard

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

func TestValidChecksum(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid with X check char", "11010519491231002X", true},
		{"valid with lowercase x", "11010519491231002x", true},
		{"wrong check digit", "110105199003077636", false},
		{"too short", "1101051949123100", false},
		{"too long", "11010519491231002X9", false},
		{"letter in body", "1101051949123100AX", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidChecksum(tt.id); got != tt.want {
				t.Errorf("ValidChecksum(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestExtractLabelAnchored(t *testing.T) {
	p := testPage(
		"中华人民共和国居民身份证",
		"姓名 张三",
		"性别 男 民族 汉",
		"公民身份号码",
		"110105199003077636",
	)

	got := New(false).Extract(p)

	if got.IDNumber != "110105199003077636" {
		t.Errorf("IDNumber = %q, want %q", got.IDNumber, "110105199003077636")
	}
	if got.Name != "张三" {
		t.Errorf("Name = %q, want %q", got.Name, "张三")
	}
	if !got.LowConfidence {
		t.Error("expected LowConfidence for a number failing the checksum")
	}
}

func TestExtractChecksumValid(t *testing.T) {
	p := testPage(
		"姓名 李四",
		"公民身份号码 11010519491231002X",
	)

	got := New(false).Extract(p)

	if got.IDNumber != "11010519491231002X" {
		t.Errorf("IDNumber = %q, want %q", got.IDNumber, "11010519491231002X")
	}
	if got.LowConfidence {
		t.Error("checksum-valid number must not be flagged low confidence")
	}
}

func TestExtractStrictRejectsInvalid(t *testing.T) {
	p := testPage(
		"公民身份号码 110105199003077636",
	)

	got := New(true).Extract(p)

	if got.IDNumber != "" {
		t.Errorf("strict mode kept invalid number %q", got.IDNumber)
	}
}

func TestExtractFallbackWithoutLabel(t *testing.T) {
	p := testPage(
		"张三",
		"11010519491231002X",
	)

	got := New(false).Extract(p)

	if got.IDNumber != "11010519491231002X" {
		t.Errorf("IDNumber = %q, want fallback match", got.IDNumber)
	}
	if got.Name != "张三" {
		t.Errorf("Name = %q, want proximity fallback 张三", got.Name)
	}
}

func TestExtractLabelAnchoredSplitDigits(t *testing.T) {
	p := testPage(
		"公民身份号码",
		"110105 19900307 7636",
	)

	got := New(false).Extract(p)

	if got.IDNumber != "110105199003077636" {
		t.Errorf("IDNumber = %q, want digits joined across separators", got.IDNumber)
	}
}

func TestExtractNamePositional(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"upper half accepted", []string{"张三", "其他说明文字内容"}, "张三"},
		{"lower half rejected", []string{"其他说明文字内容", "李四"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(false).Extract(testPage(tt.lines...))
			if got.Name != tt.want {
				t.Errorf("Name = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestExtractNumberPositional(t *testing.T) {
	p := testPage(
		"居民身份证",
		"110105 1990030776 36",
	)

	got := New(false).Extract(p)

	if got.IDNumber != "110105199003077636" {
		t.Errorf("IDNumber = %q, want lower half digits", got.IDNumber)
	}
	if !got.LowConfidence {
		t.Error("positional number failing the checksum must be flagged")
	}
}

func TestExtractNameStoplist(t *testing.T) {
	p := testPage(
		"身份证",
		"公民身份号码 11010519491231002X",
	)

	got := New(false).Extract(p)

	if got.Name != "" {
		t.Errorf("Name = %q, stoplist token must not become a name", got.Name)
	}
}

func TestExtractEmptyPage(t *testing.T) {
	got := New(false).Extract(testPage())
	if got.IDNumber != "" || got.Name != "" {
		t.Errorf("empty page produced %+v", got)
	}
}
