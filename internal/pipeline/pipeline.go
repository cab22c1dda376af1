/**
 * Claim batch pipeline
 *
 * Runs OCR, classification, and type-routed extraction for each page of a
 * batch, then folds all page results into one flat claim record. Pages are
 * processed concurrently; aggregation happens in upload order so the first
 * page to resolve a field wins.
 */

package pipeline

import (
	"context"
	"sync"

	"github.com/king-song823/orcPig/internal/classify"
	"github.com/king-song823/orcPig/internal/config"
	"github.com/king-song823/orcPig/internal/extract/bankcard"
	"github.com/king-song823/orcPig/internal/extract/eartag"
	"github.com/king-song823/orcPig/internal/extract/idcard"
	"github.com/king-song823/orcPig/internal/extract/screenshot"
	"github.com/king-song823/orcPig/internal/logging"
	"github.com/king-song823/orcPig/internal/ocr"
)

// Sentinel value for fields no page resolved
const Unrecognized = "未识别"

// Image is one uploaded page
type Image struct {
	Filename string
	Data     []byte
}

// PageResult is the outcome of one page. A failed page carries Error and
// contributes nothing to the batch record.
type PageResult struct {
	Index    int                          `json:"index"`
	Filename string                       `json:"filename"`
	DocType  classify.DocType             `json:"docType"`
	Scores   map[classify.DocType]float64 `json:"scores,omitempty"`
	Error    string                       `json:"error,omitempty"`

	ID         idcard.Result     `json:"-"`
	Bank       bankcard.Result   `json:"-"`
	Screenshot screenshot.Result `json:"-"`
	EarTag     eartag.Result     `json:"-"`
}

// BatchResult is the flat claim record returned to the caller. Every field
// is always present; unresolved fields carry the sentinel.
type BatchResult struct {
	IDNumber         string `json:"idNumber"`
	InsuredPerson    string `json:"insuredPerson"`
	InsuranceSubject string `json:"insuranceSubject"`
	BankName         string `json:"bankName"`
	CardNumber       string `json:"cardNumber"`
	PolicyNumber     string `json:"policyNumber"`
	ClaimNumber      string `json:"claimNumber"`
	IncidentLocation string `json:"incidentLocation"`
	IncidentCause    string `json:"incidentCause"`
	CoveragePeriod   string `json:"coveragePeriod"`
	ReportTime       string `json:"reportTime"`
	InspectionTime   string `json:"inspectionTime"`
	InspectionMethod string `json:"inspectionMethod"`
	EstimatedLoss    string `json:"estimatedLoss"`
	EarTag7Digit     string `json:"earTag7Digit"`
	EarTag8Digit     string `json:"earTag8Digit"`

	// Fields whose values came from unvalidated or backfilled candidates
	LowConfidence []string `json:"lowConfidence,omitempty"`

	Pages []PageResult `json:"pages,omitempty"`
}

// Recognizer is the OCR dependency of the pipeline
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (*ocr.Page, error)
}

// Pipeline processes claim batches
type Pipeline struct {
	recognizer Recognizer
	idcard     *idcard.Extractor
	bankcard   *bankcard.Extractor
	logger     *logging.Logger
}

// New creates a pipeline over the given recognizer
func New(recognizer Recognizer, cfg *config.Config) *Pipeline {
	logger := logging.NewLogger("Pipeline")
	logger.SetDebug(cfg.Debug)

	return &Pipeline{
		recognizer: recognizer,
		idcard:     idcard.New(cfg.StrictValidation),
		bankcard:   bankcard.New(cfg.StrictValidation),
		logger:     logger,
	}
}

// ProcessBatch runs every page and aggregates the claim record. A page
// failing OCR degrades only that page.
func (p *Pipeline) ProcessBatch(ctx context.Context, images []Image) *BatchResult {
	pages := make([]PageResult, len(images))

	var wg sync.WaitGroup
	for i := range images {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			pages[idx] = p.processPage(ctx, idx, images[idx])
		}(i)
	}
	wg.Wait()

	return p.aggregate(pages)
}

// processPage runs OCR, classifies, and routes to the type extractor
func (p *Pipeline) processPage(ctx context.Context, index int, img Image) PageResult {
	result := PageResult{Index: index, Filename: img.Filename, DocType: classify.DocUnclassified}

	page, err := p.recognizer.Recognize(ctx, img.Data)
	if err != nil {
		p.logger.Warn("Page OCR failed", "index", index, "filename", img.Filename, "error", err)
		result.Error = err.Error()
		return result
	}

	score := classify.Classify(page)
	result.DocType = score.Type
	result.Scores = score.Scores

	switch score.Type {
	case classify.DocIDCard:
		result.ID = p.idcard.Extract(page)
	case classify.DocBankCard:
		result.Bank = p.bankcard.Extract(page)
	case classify.DocScreenshot:
		result.Screenshot = screenshot.Extract(page)
	case classify.DocEarTag:
		result.EarTag = eartag.Extract(page)
	case classify.DocUnclassified:
		p.logger.Info("Page not classified", "index", index, "filename", img.Filename)
	}

	p.logger.Debug("Page processed", "index", index, "docType", result.DocType)

	return result
}

// aggregate folds page results into the claim record in upload order. The
// first page of each document type contributes its result and later pages
// of the same type are ignored; ear tags accumulate across pages.
func (p *Pipeline) aggregate(pages []PageResult) *BatchResult {
	result := &BatchResult{Pages: pages}

	var tags7, tags8 []string
	lowConf := map[string]bool{}
	seen := map[classify.DocType]bool{}

	for _, page := range pages {
		if page.Error != "" {
			continue
		}
		if page.DocType != classify.DocEarTag && page.DocType != classify.DocUnclassified {
			if seen[page.DocType] {
				continue
			}
			seen[page.DocType] = true
		}
		switch page.DocType {
		case classify.DocIDCard:
			if setFirst(&result.IDNumber, page.ID.IDNumber) && page.ID.LowConfidence {
				lowConf["idNumber"] = true
			}
			setFirst(&result.InsuredPerson, page.ID.Name)
		case classify.DocBankCard:
			if setFirst(&result.CardNumber, page.Bank.CardNumber) && page.Bank.LowConfidence {
				lowConf["cardNumber"] = true
			}
			setFirst(&result.BankName, page.Bank.BankName)
		case classify.DocScreenshot:
			s := page.Screenshot
			setFirst(&result.PolicyNumber, s.PolicyNumber)
			setFirst(&result.ClaimNumber, s.ClaimNumber)
			setFirst(&result.InsuredPerson, s.InsuredPerson)
			setFirst(&result.InsuranceSubject, s.InsuranceSubject)
			setFirst(&result.CoveragePeriod, s.CoveragePeriod)
			setFirst(&result.IncidentLocation, s.IncidentLocation)
			setFirst(&result.IncidentCause, s.IncidentCause)
			setFirst(&result.ReportTime, s.ReportTime)
			setFirst(&result.InspectionTime, s.InspectionTime)
			setFirst(&result.InspectionMethod, s.InspectionMethod)
			setFirst(&result.EstimatedLoss, s.EstimatedLoss)
		case classify.DocEarTag:
			t := page.EarTag
			if t.Tag7 != "" {
				tags7 = appendUnique(tags7, t.Tag7)
				if t.Tag7Backfilled {
					lowConf["earTag7Digit"] = true
				}
			}
			if t.Tag8 != "" {
				tags8 = appendUnique(tags8, t.Tag8)
				if t.Tag8Backfilled {
					lowConf["earTag8Digit"] = true
				}
			}
		}
	}

	result.EarTag7Digit = joinOrEmpty(tags7)
	result.EarTag8Digit = joinOrEmpty(tags8)

	for _, field := range []string{"idNumber", "cardNumber", "earTag7Digit", "earTag8Digit"} {
		if lowConf[field] {
			result.LowConfidence = append(result.LowConfidence, field)
		}
	}

	fillSentinels(result)

	return result
}

// setFirst writes value into dst only when dst is still empty. Reports
// whether the write happened.
func setFirst(dst *string, value string) bool {
	if *dst != "" || value == "" {
		return false
	}
	*dst = value
	return true
}

func appendUnique(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}

func joinOrEmpty(tags []string) string {
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}

func fillSentinels(r *BatchResult) {
	for _, f := range []*string{
		&r.IDNumber, &r.InsuredPerson, &r.InsuranceSubject, &r.BankName, &r.CardNumber,
		&r.PolicyNumber, &r.ClaimNumber, &r.IncidentLocation, &r.IncidentCause,
		&r.CoveragePeriod, &r.ReportTime, &r.InspectionTime, &r.InspectionMethod,
		&r.EstimatedLoss, &r.EarTag7Digit, &r.EarTag8Digit,
	} {
		if *f == "" {
			*f = Unrecognized
		}
	}
}
