package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/king-song823/orcPig/internal/classify"
	"github.com/king-song823/orcPig/internal/config"
	"github.com/king-song823/orcPig/internal/ocr"
)

// fakeRecognizer returns canned pages keyed by filename
type fakeRecognizer struct {
	pages map[string][]string
}

func (f *fakeRecognizer) Recognize(ctx context.Context, image []byte) (*ocr.Page, error) {
	lines, ok := f.pages[string(image)]
	if !ok {
		return nil, fmt.Errorf("recognition failed")
	}
	p := &ocr.Page{Engine: "fake"}
	for i, line := range lines {
		y := float64(i * 10)
		box := [4][2]float64{{0, y}, {100, y}, {100, y + 10}, {0, y + 10}}
		p.Records = append(p.Records, ocr.NewTextRecord(line, 0.9, box))
	}
	return p, nil
}

func testConfig() *config.Config {
	return &config.Config{StrictValidation: false}
}

func testImages(keys ...string) []Image {
	images := make([]Image, 0, len(keys))
	for _, k := range keys {
		images = append(images, Image{Filename: k + ".jpg", Data: []byte(k)})
	}
	return images
}

func newTestPipeline(pages map[string][]string) *Pipeline {
	return New(&fakeRecognizer{pages: pages}, testConfig())
}

func TestProcessBatchFullClaim(t *testing.T) {
	p := newTestPipeline(map[string][]string{
		"id": {
			"姓名 张三",
			"公民身份号码 11010519491231002X",
		},
		"bank": {
			"贵州农信 储蓄卡 银联",
			"6217791234567890126",
		},
		"screenshot": {
			"保单号 P1622025203N0000002",
			"报案号 R16220255203N000015207",
			"被保险人 王五",
			"保险标的 育肥猪",
			"起保日期 2025-01-01",
			"终保日期 2025-12-31",
			"出险日期 2025-06-27",
			"出险原因 疾病死亡",
			"估损金额 3500.00",
			"现场查勘",
		},
		"eartag": {
			"1520321",
			"10900830",
		},
	})

	got := p.ProcessBatch(context.Background(), testImages("id", "bank", "screenshot", "eartag"))

	checks := map[string]string{
		"idNumber":         got.IDNumber,
		"insuredPerson":    got.InsuredPerson,
		"insuranceSubject": got.InsuranceSubject,
		"bankName":         got.BankName,
		"cardNumber":       got.CardNumber,
		"policyNumber":     got.PolicyNumber,
		"claimNumber":      got.ClaimNumber,
		"coveragePeriod":   got.CoveragePeriod,
		"inspectionMethod": got.InspectionMethod,
		"estimatedLoss":    got.EstimatedLoss,
		"earTag7Digit":     got.EarTag7Digit,
		"earTag8Digit":     got.EarTag8Digit,
	}
	want := map[string]string{
		"idNumber":         "11010519491231002X",
		"insuredPerson":    "张三",
		"insuranceSubject": "育肥猪",
		"bankName":         "贵州农信",
		"cardNumber":       "6217791234567890126",
		"policyNumber":     "P1622025203N0000002",
		"claimNumber":      "R16220255203N000015207",
		"coveragePeriod":   "2025-01-01 至 2025-12-31",
		"inspectionMethod": "现场查勘",
		"estimatedLoss":    "3500.00",
		"earTag7Digit":     "1520321",
		"earTag8Digit":     "10900830",
	}
	for field, w := range want {
		if checks[field] != w {
			t.Errorf("%s = %q, want %q", field, checks[field], w)
		}
	}

	if got.IncidentLocation != Unrecognized {
		t.Errorf("incidentLocation = %q, want sentinel", got.IncidentLocation)
	}
}

func TestProcessBatchIDCardNameWinsOverScreenshot(t *testing.T) {
	p := newTestPipeline(map[string][]string{
		"id": {
			"姓名 张三",
			"公民身份号码 11010519491231002X",
		},
		"screenshot": {
			"保单号 P1622025203N0000002",
			"被保险人 王五",
			"出险日期 2025-06-27",
		},
	})

	got := p.ProcessBatch(context.Background(), testImages("id", "screenshot"))

	if got.InsuredPerson != "张三" {
		t.Errorf("insuredPerson = %q, first writer must win", got.InsuredPerson)
	}
}

func TestProcessBatchSecondIDCardIgnored(t *testing.T) {
	// The first ID card page owns the type; a second card must not splice
	// its fields into the record
	p := newTestPipeline(map[string][]string{
		"card1": {"姓名 张三"},
		"card2": {"公民身份号码 11010519491231002X"},
	})

	got := p.ProcessBatch(context.Background(), testImages("card1", "card2"))

	if got.InsuredPerson != "张三" {
		t.Errorf("insuredPerson = %q, want value from first card", got.InsuredPerson)
	}
	if got.IDNumber != Unrecognized {
		t.Errorf("idNumber = %q, second card must be ignored", got.IDNumber)
	}
}

func TestProcessBatchSentinelsOnEmptyResults(t *testing.T) {
	p := newTestPipeline(map[string][]string{
		"blank": {"无关内容"},
	})

	got := p.ProcessBatch(context.Background(), testImages("blank"))

	for field, value := range map[string]string{
		"idNumber":       got.IDNumber,
		"bankName":       got.BankName,
		"coveragePeriod": got.CoveragePeriod,
		"earTag7Digit":   got.EarTag7Digit,
	} {
		if value != Unrecognized {
			t.Errorf("%s = %q, want sentinel %q", field, value, Unrecognized)
		}
	}

	if got.Pages[0].DocType != classify.DocUnclassified {
		t.Errorf("docType = %s, want unclassified", got.Pages[0].DocType)
	}
}

func TestProcessBatchFailedPageDegradesAlone(t *testing.T) {
	p := newTestPipeline(map[string][]string{
		"eartag": {"1520321", "10900830"},
		// "broken" is absent so its recognition fails
	})

	got := p.ProcessBatch(context.Background(), testImages("broken", "eartag"))

	if got.Pages[0].Error == "" {
		t.Error("failed page must carry its error")
	}
	if got.EarTag7Digit != "1520321" {
		t.Errorf("earTag7Digit = %q, healthy page must still contribute", got.EarTag7Digit)
	}
}

func TestProcessBatchEarTagsAccumulate(t *testing.T) {
	p := newTestPipeline(map[string][]string{
		"tag1": {"1520321"},
		"tag2": {"1520322"},
	})

	got := p.ProcessBatch(context.Background(), testImages("tag1", "tag2"))

	if got.EarTag7Digit != "1520321,1520322" {
		t.Errorf("earTag7Digit = %q, want accumulated tags", got.EarTag7Digit)
	}
	if !strings.Contains(strings.Join(got.LowConfidence, ","), "earTag8Digit") {
		t.Errorf("lowConfidence = %v, backfilled eight digit tag must be flagged", got.LowConfidence)
	}
}

func TestProcessBatchLowConfidenceOrderStable(t *testing.T) {
	p := newTestPipeline(map[string][]string{
		"id":  {"公民身份号码 110105199003077636"},
		"tag": {"1520321"},
	})

	got := p.ProcessBatch(context.Background(), testImages("id", "tag"))

	want := []string{"idNumber", "earTag8Digit"}
	if strings.Join(got.LowConfidence, ",") != strings.Join(want, ",") {
		t.Errorf("lowConfidence = %v, want %v in field order", got.LowConfidence, want)
	}
}
