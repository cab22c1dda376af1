/**
 * National ID card extraction
 *
 * Pulls the 18-character citizen ID number and the holder name out of OCR
 * fragments. Number candidates are anchored on label keywords first, then
 * found by pattern fallback; candidates are validated by the official
 * checksum.
 */

package idcard

import (
	"regexp"
	"strings"

	"github.com/king-song823/orcPig/internal/ocr"
)

// Result holds the extracted ID card fields
type Result struct {
	IDNumber      string
	Name          string
	LowConfidence bool
}

// Labels that precede or contain the ID number
var numberLabels = []string{"公民身份号码", "身份证号码", "身份证号", "号码", "证号"}

// Labels that precede the holder name
var nameLabelRe = regexp.MustCompile(`(?:姓名|名字|姓|名)[^\p{Han}]*(\p{Han}{2,4})`)

// Tokens that look like names but never are
var nameStoplist = []string{
	"中国", "贵州", "银行", "农信", "信用社", "储蓄卡", "借记卡", "身份证", "公民", "号码",
}

var (
	fullIDRe  = regexp.MustCompile(`\d{17}[\dXx]`)
	looseIDRe = regexp.MustCompile(`\d{15,18}`)
	hanOnlyRe = regexp.MustCompile(`^\p{Han}{2,4}$`)
)

// Checksum weights over the first 17 digits
var idWeights = [17]int{7, 9, 10, 5, 8, 4, 2, 1, 6, 3, 7, 9, 10, 5, 8, 4, 2}

// Check characters indexed by weighted sum mod 11
var idCheckChars = [11]byte{'1', '0', 'X', '9', '8', '7', '6', '5', '4', '3', '2'}

// ValidChecksum reports whether an 18-character ID number has a correct
// check character. The check character compares case-insensitively.
func ValidChecksum(id string) bool {
	if len(id) != 18 {
		return false
	}

	sum := 0
	for i := 0; i < 17; i++ {
		c := id[i]
		if c < '0' || c > '9' {
			return false
		}
		sum += int(c-'0') * idWeights[i]
	}

	actual := id[17]
	if actual == 'x' {
		actual = 'X'
	}
	return actual == idCheckChars[sum%11]
}

// Extractor extracts ID card fields from a recognized page
type Extractor struct {
	strict bool
}

// New creates an extractor. In strict mode a candidate failing the checksum
// is rejected outright; otherwise the best candidate is kept and flagged.
func New(strict bool) *Extractor {
	return &Extractor{strict: strict}
}

// Extract finds the ID number and holder name on the page
func (e *Extractor) Extract(page *ocr.Page) Result {
	lines := page.Lines()

	number, numberLine, lowConf := e.findNumber(lines)
	name := findName(lines, numberLine)

	// On a card layout the name sits above the vertical midline and the
	// number below it, so unresolved fields fall back to geometry.
	height := pageHeight(page)
	if name == "" {
		name = findNameByPosition(page, height)
	}
	if number == "" {
		number, lowConf = e.findNumberByPosition(page, height)
	}

	return Result{
		IDNumber:      number,
		Name:          name,
		LowConfidence: lowConf,
	}
}

// findNumber returns the ID number, the line index it was found on, and
// whether the value failed checksum validation
func (e *Extractor) findNumber(lines []string) (string, int, bool) {
	// Pass 1: label-anchored search. The number is often split by spaces
	// or misreads, so digits are concatenated per line and the trailing 18
	// taken.
	for i, line := range lines {
		if !containsAny(line, numberLabels) {
			continue
		}
		for j := i; j < len(lines) && j <= i+4; j++ {
			digits := digitsOf(lines[j])
			if len(digits) < 18 {
				continue
			}
			m := digits[len(digits)-18:]
			if ValidChecksum(m) {
				return m, j, false
			}
			if !e.strict {
				return m, j, true
			}
		}
	}

	// Pass 2: any 18-character sequence anywhere on the page
	var fallback string
	fallbackLine := -1
	for i, line := range lines {
		if m := fullIDRe.FindString(line); m != "" {
			if ValidChecksum(m) {
				return m, i, false
			}
			if fallback == "" {
				fallback, fallbackLine = m, i
			}
		}
	}
	if fallback != "" && !e.strict {
		return fallback, fallbackLine, true
	}

	// Pass 3: looser digit runs, only when nothing better exists
	if !e.strict {
		for i, line := range lines {
			if m := looseIDRe.FindString(line); len(m) >= 15 {
				return m, i, true
			}
		}
	}

	return "", -1, false
}

// findName resolves the holder name, preferring label-anchored matches and
// falling back to short Han-only fragments near the ID number
func findName(lines []string, numberLine int) string {
	for _, line := range lines {
		if m := nameLabelRe.FindStringSubmatch(line); m != nil {
			if candidate := m[1]; !inStoplist(candidate) {
				return candidate
			}
		}
	}

	if numberLine < 0 {
		return ""
	}

	// Names sit close to the number on a card layout
	lo, hi := numberLine-3, numberLine+3
	for i := lo; i <= hi; i++ {
		if i < 0 || i >= len(lines) {
			continue
		}
		candidate := strings.TrimSpace(lines[i])
		if hanOnlyRe.MatchString(candidate) && !inStoplist(candidate) {
			return candidate
		}
	}

	return ""
}

// findNameByPosition takes a short Han-only fragment from the upper half of
// the page
func findNameByPosition(page *ocr.Page, height float64) string {
	if height <= 0 {
		return ""
	}
	for _, rec := range page.Records {
		if rec.CenterY/height >= 0.5 {
			continue
		}
		candidate := strings.TrimSpace(rec.Text)
		if hanOnlyRe.MatchString(candidate) && !inStoplist(candidate) {
			return candidate
		}
	}
	return ""
}

// findNumberByPosition collects digits from fragments in the lower half of
// the page, accepting a 15 to 18 digit total
func (e *Extractor) findNumberByPosition(page *ocr.Page, height float64) (string, bool) {
	if height <= 0 {
		return "", false
	}
	for _, rec := range page.Records {
		if rec.CenterY/height <= 0.5 {
			continue
		}
		digits := digitsOf(rec.Text)
		if len(digits) < 15 || len(digits) > 18 {
			continue
		}
		if ValidChecksum(digits) {
			return digits, false
		}
		if !e.strict {
			return digits, true
		}
	}
	return "", false
}

func pageHeight(page *ocr.Page) float64 {
	h := 0.0
	for _, rec := range page.Records {
		for _, corner := range rec.Box {
			if corner[1] > h {
				h = corner[1]
			}
		}
	}
	return h
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func inStoplist(s string) bool {
	for _, stop := range nameStoplist {
		if strings.Contains(s, stop) {
			return true
		}
	}
	return false
}
