package classify

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

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  DocType
	}{
		{
			name: "id card",
			lines: []string{
				"姓名 张三",
				"性别 男 民族 汉",
				"公民身份号码 11010519491231002X",
			},
			want: DocIDCard,
		},
		{
			name: "bank card",
			lines: []string{
				"中国银联 储蓄卡",
				"6217 7912 3456 7890 126",
			},
			want: DocBankCard,
		},
		{
			name: "claim system screenshot",
			lines: []string{
				"保单号 P1622025203N0000002",
				"报案号 R16220255203N000015207",
				"被保险人 王五",
				"出险日期 2025-06-27",
			},
			want: DocScreenshot,
		},
		{
			name: "ear tag photo",
			lines: []string{
				"1520321",
				"10900830",
			},
			want: DocEarTag,
		},
		{
			name:  "no evidence stays unclassified",
			lines: []string{"你好", "test"},
			want:  DocUnclassified,
		},
		{
			name:  "empty page stays unclassified",
			lines: nil,
			want:  DocUnclassified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(testPage(tt.lines...))
			if got.Type != tt.want {
				t.Errorf("Classify() = %s (scores %v), want %s", got.Type, got.Scores, tt.want)
			}
		})
	}
}

func TestClassifyKeywordAloneIsNotEnough(t *testing.T) {
	// A bank keyword on an ID card page must not outvote real ID evidence
	got := Classify(testPage(
		"姓名 张三 住址 某某市",
		"公民身份号码 11010519491231002X",
		"银行",
	))

	if got.Type != DocIDCard {
		t.Errorf("Classify() = %s (scores %v), want idcard", got.Type, got.Scores)
	}
}

func TestClassifyTieBreakPrefersIDCard(t *testing.T) {
	got := Classify(testPage("身份证 银行 一条无效记录"))

	if got.Scores[DocIDCard] != got.Scores[DocBankCard] {
		t.Skipf("scores diverged (%v), tie-break not exercised", got.Scores)
	}
	if got.Type != DocIDCard {
		t.Errorf("Classify() = %s on tied scores, want idcard", got.Type)
	}
}
