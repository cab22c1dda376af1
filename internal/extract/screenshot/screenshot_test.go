package screenshot

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

func TestExtractFullScreenshot(t *testing.T) {
	p := testPage(
		"理赔案件详情",
		"保单号 P1622025203N0000002",
		"报案号 R16220255203N000015207",
		"被保险人 王五",
		"保险标的 育肥猪",
		"起保日期 2025-01-01",
		"终保日期 2025-12-31",
		"出险日期 2025.06.27",
		"出险地点 某某县某某乡某某村",
		"出险原因 疾病死亡",
		"估损金额 3500.00",
		"查勘方式 现场查勘",
		"报案日期 2025.06.27",
	)

	got := Extract(p)

	want := Result{
		PolicyNumber:     "P1622025203N0000002",
		ClaimNumber:      "R16220255203N000015207",
		InsuredPerson:    "王五",
		InsuranceSubject: "育肥猪",
		CoveragePeriod:   "2025-01-01 至 2025-12-31",
		IncidentDate:     "2025-06-27",
		IncidentLocation: "某某县某某乡某某村",
		IncidentCause:    "疾病死亡",
		ReportTime:       "2025-06-27",
		InspectionTime:   "2025-06-28",
		InspectionMethod: "现场查勘",
		EstimatedLoss:    "3500.00",
	}

	if got != want {
		t.Errorf("Extract() = %+v, want %+v", got, want)
	}
}

func TestReferenceNumbersKeepTheirPrefixes(t *testing.T) {
	// A claim number sitting right under the policy label must not fill
	// the policy field
	p := testPage(
		"保单号",
		"R16220255203N000015207",
	)

	got := Extract(p)

	if got.PolicyNumber != "" {
		t.Errorf("PolicyNumber = %q, claim reference must not fill it", got.PolicyNumber)
	}
	if got.ClaimNumber != "R16220255203N000015207" {
		t.Errorf("ClaimNumber = %q", got.ClaimNumber)
	}
}

func TestReferenceNumbersRejectShortMatches(t *testing.T) {
	got := Extract(testPage("P12N34 R123N45"))

	if got.PolicyNumber != "" {
		t.Errorf("PolicyNumber = %q, short token must be rejected", got.PolicyNumber)
	}
	if got.ClaimNumber != "" {
		t.Errorf("ClaimNumber = %q, short token must be rejected", got.ClaimNumber)
	}
}

func TestInsuranceSubject(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"labeled", []string{"保险标的 能繁母猪"}, "能繁母猪"},
		{"vocabulary match without label", []string{"承保 仔猪 30头"}, "仔猪"},
		{"default when unreadable", []string{"理赔案件详情"}, "育肥猪"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(testPage(tt.lines...))
			if got.InsuranceSubject != tt.want {
				t.Errorf("InsuranceSubject = %q, want %q", got.InsuranceSubject, tt.want)
			}
		})
	}
}

func TestCoveragePeriodSwapsReversedDates(t *testing.T) {
	p := testPage(
		"起保日期 2025-12-31",
		"终保日期 2025-01-01",
	)

	got := Extract(p)

	if got.CoveragePeriod != "2025-01-01 至 2025-12-31" {
		t.Errorf("CoveragePeriod = %q, want swapped order", got.CoveragePeriod)
	}
}

func TestCoverageStartDateBeforeItsLabel(t *testing.T) {
	// The start date is OCR-ordered before its keyword; the window must
	// search both directions and the period must keep both endpoints
	p := testPage(
		"2025-01-01",
		"起保日期",
		"终保日期 2025-12-31",
	)

	got := Extract(p)

	if got.CoveragePeriod != "2025-01-01 至 2025-12-31" {
		t.Errorf("CoveragePeriod = %q, want both endpoints", got.CoveragePeriod)
	}
}

func TestInspectionTimeFallsBackToIncidentPlusOne(t *testing.T) {
	p := testPage(
		"出险日期 2025-06-27",
	)

	got := Extract(p)

	if got.InspectionTime != "2025-06-28" {
		t.Errorf("InspectionTime = %q, want incident date plus one day", got.InspectionTime)
	}
	if got.ReportTime != "2025-06-27" {
		t.Errorf("ReportTime = %q, want collapse onto incident date", got.ReportTime)
	}
}

func TestInspectionMethodOCRVariants(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"clean", "查勘方式 现场查勘", "现场查勘"},
		{"misread 助", "现场查助", "现场查勘"},
		{"misread 汤", "现汤查勘", "现场查勘"},
		{"phone", "电话查勘完成", "电话查勘"},
		{"none", "理赔进度", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(testPage(tt.line))
			if got.InspectionMethod != tt.want {
				t.Errorf("InspectionMethod = %q, want %q", got.InspectionMethod, tt.want)
			}
		})
	}
}

func TestExtractValueOnFollowingLine(t *testing.T) {
	p := testPage(
		"保单号",
		"P1622025203N0000002",
		"终保日期",
		"2025-12-31",
		"起保日期",
		"2025-01-01",
	)

	got := Extract(p)

	if got.PolicyNumber != "P1622025203N0000002" {
		t.Errorf("PolicyNumber = %q", got.PolicyNumber)
	}
	if got.CoveragePeriod != "2025-01-01 至 2025-12-31" {
		t.Errorf("CoveragePeriod = %q", got.CoveragePeriod)
	}
}

func TestExtractEmptyPage(t *testing.T) {
	got := Extract(testPage())
	if got != (Result{InsuranceSubject: "育肥猪"}) {
		t.Errorf("empty page produced %+v", got)
	}
}
