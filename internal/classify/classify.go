/**
 * Document classification
 *
 * Each page gets a per-type score built from keyword evidence and
 * type-specific structural patterns. The highest score wins; pages with no
 * evidence at all stay unclassified rather than being forced into a type.
 */

package classify

import (
	"regexp"
	"strings"

	"github.com/king-song823/orcPig/internal/extract/bankcard"
	"github.com/king-song823/orcPig/internal/extract/idcard"
	"github.com/king-song823/orcPig/internal/extract/screenshot"
	"github.com/king-song823/orcPig/internal/ocr"
)

// DocType is the classified document category of a page
type DocType string

const (
	DocIDCard       DocType = "idcard"
	DocBankCard     DocType = "bankcard"
	DocScreenshot   DocType = "screenshot"
	DocEarTag       DocType = "eartag"
	DocUnclassified DocType = "unclassified"
)

// Score carries the winning type and the full per-type score map
type Score struct {
	Type   DocType
	Scores map[DocType]float64
}

var idKeywords = []string{"身份证", "公民身份号码", "姓名", "性别", "民族", "出生", "住址"}
var bankKeywords = []string{"银联", "UnionPay", "Union", "ATM", "储蓄卡", "借记卡", "信用卡", "银行", "农信"}
var screenshotKeywords = []string{
	"保单号", "报案号", "被保险人", "保险标的", "出险日期", "查勘", "估损金额", "理赔", "承保公司",
}
var eartagKeywords = []string{"耳标", "耳号", "免疫"}

var (
	fullIDRe      = regexp.MustCompile(`\d{17}[\dXx]`)
	cardRunRe     = regexp.MustCompile(`(?:\d[\s\-.]?){16,19}`)
	shortDigitsRe = regexp.MustCompile(`^\d{7,8}$`)
	alnumTokenRe  = regexp.MustCompile(`[0-9A-Za-z]+`)
)

// Classify scores the page against every document type
func Classify(page *ocr.Page) Score {
	text := page.Text()

	scores := map[DocType]float64{
		DocIDCard:     scoreIDCard(text),
		DocBankCard:   scoreBankCard(text),
		DocScreenshot: scoreScreenshot(text),
		DocEarTag:     scoreEarTag(text),
	}

	// Tie-break order mirrors how decisive each type's evidence is
	order := []DocType{DocIDCard, DocBankCard, DocScreenshot, DocEarTag}
	winner := DocUnclassified
	best := 0.0
	for _, t := range order {
		if scores[t] > best {
			winner, best = t, scores[t]
		}
	}

	return Score{Type: winner, Scores: scores}
}

// scoreIDCard needs a label keyword plus an 18-character number; the
// checksum passing is what separates a real card from incidental digits
func scoreIDCard(text string) float64 {
	score := 0.0
	for _, kw := range idKeywords {
		if strings.Contains(text, kw) {
			score += 1.0
		}
	}
	if score == 0 {
		return 0
	}

	for _, m := range fullIDRe.FindAllString(text, -1) {
		if idcard.ValidChecksum(m) {
			score += 5.0
			break
		}
	}

	return score
}

// scoreBankCard weights a Luhn-valid card run at 2.0 on top of keyword hits
func scoreBankCard(text string) float64 {
	score := 0.0
	for _, kw := range bankKeywords {
		if strings.Contains(text, kw) {
			score += 1.0
		}
	}
	if score == 0 {
		return 0
	}

	for _, run := range cardRunRe.FindAllString(text, -1) {
		digits := stripNonDigits(run)
		if len(digits) >= 16 && len(digits) <= 19 && bankcard.Luhn(digits) {
			score += 2.0
			break
		}
	}

	return score
}

// scoreScreenshot counts claim-system labels and adds reference-number
// pattern evidence
func scoreScreenshot(text string) float64 {
	score := 0.0
	for _, kw := range screenshotKeywords {
		if strings.Contains(text, kw) {
			score += 1.0
		}
	}

	if screenshot.HasPolicyRef(text) {
		score += 2.0
	}
	if screenshot.HasClaimRef(text) {
		score += 2.0
	}

	return score
}

// scoreEarTag counts candidate tag tokens; each weighs 3.0 since short
// digit runs rarely appear on the other document types
func scoreEarTag(text string) float64 {
	score := 0.0
	for _, token := range alnumTokenRe.FindAllString(text, -1) {
		if shortDigitsRe.MatchString(token) && !strings.HasPrefix(token, "202") {
			score += 3.0
		}
	}

	for _, kw := range eartagKeywords {
		if strings.Contains(text, kw) {
			score += 2.0
		}
	}

	return score
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
