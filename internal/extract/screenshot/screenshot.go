/**
 * Insurer system screenshot extraction
 *
 * Screenshots of the insurer's claim system carry labeled fields in reading
 * order. Every field is found by anchoring on its label keywords and
 * scanning a bounded window of following fragments; window widths differ
 * per field because the layouts place values at different distances from
 * their labels.
 */

package screenshot

import (
	"regexp"
	"strings"

	"github.com/king-song823/orcPig/internal/ocr"
)

// Result holds the extracted claim system fields. Empty string means the
// field was not resolved on this page.
type Result struct {
	PolicyNumber     string
	ClaimNumber      string
	InsuredPerson    string
	InsuranceSubject string
	CoveragePeriod   string
	IncidentDate     string
	IncidentLocation string
	IncidentCause    string
	ReportTime       string
	InspectionTime   string
	InspectionMethod string
	EstimatedLoss    string
}

var (
	policyRefRe = regexp.MustCompile(`P[0-9A-Za-z]{2,}N\d{2,}`)
	claimRefRe  = regexp.MustCompile(`R[0-9A-Za-z]{2,}N\d{2,}`)
	amountRe    = regexp.MustCompile(`([0-9,]+\.\d{2})`)
	hanRunRe    = regexp.MustCompile(`\p{Han}{2,}`)
	locationRe  = regexp.MustCompile(`\p{Han}{2,20}[乡镇村组屯县市区场地]`)
)

// HasPolicyRef reports whether text contains a policy reference number
func HasPolicyRef(text string) bool { return policyRefRe.MatchString(text) }

// HasClaimRef reports whether text contains a claim reference number
func HasClaimRef(text string) bool { return claimRefRe.MatchString(text) }

// Insurance subjects named in livestock policies. The first entry doubles as
// the default when no subject is readable on the page.
var subjectTerms = []string{"育肥猪", "能繁母猪", "香猪", "仔猪", "生猪"}

const defaultSubject = "育肥猪"

// Extract pulls all claim fields from a screenshot page
func Extract(page *ocr.Page) Result {
	lines := page.Lines()

	r := Result{
		PolicyNumber:     findReference(lines, policyRefRe, 10, 30),
		ClaimNumber:      findReference(lines, claimRefRe, 15, 30),
		InsuredPerson:    findInsured(lines),
		InsuranceSubject: findSubject(lines),
		IncidentLocation: findLocation(lines),
		IncidentCause:    findCause(lines),
		EstimatedLoss:    findAmount(lines),
		InspectionMethod: findInspectionMethod(lines),
	}

	startKeywords := []string{"起保日期", "保险起期"}
	endKeywords := []string{"终保日期", "保险止期"}

	start := findDateNear(lines, startKeywords, 15, false)
	end := findDateNear(lines, endKeywords, 10, true)

	// Both anchors landing on one date means the window captured the same
	// token twice. Re-collect every date near either anchor and take the
	// two earliest.
	if start != "" && start == end {
		periodKeywords := []string{"起保日期", "保险起期", "终保日期", "保险止期"}
		dates := collectDatesNear(lines, periodKeywords, 15)
		if len(dates) >= 2 {
			start, end = dates[0], dates[1]
		} else {
			end = ""
		}
	}
	r.CoveragePeriod = formatCoverage(start, end)

	r.IncidentDate = findDateNear(lines, []string{"出险日期", "出险时间"}, 6, false)
	if r.IncidentDate == "" {
		r.IncidentDate = findDateNear(lines, []string{"出险"}, 15, false)
	}

	r.ReportTime = findDateNear(lines, []string{"报案日期", "报案时间"}, 6, false)
	r.InspectionTime = findDateNear(lines, []string{"立案日期", "查勘日期"}, 6, false)

	// Report and inspection collapse onto the incident when absent; a claim
	// is inspected the day after it is reported at the latest.
	if r.ReportTime == "" && r.IncidentDate != "" {
		r.ReportTime = r.IncidentDate
	}
	if r.InspectionTime == "" && r.IncidentDate != "" {
		r.InspectionTime = AddDays(r.IncidentDate, 1)
	}

	return r
}

// formatCoverage joins the period endpoints, swapping when they arrived
// reversed
func formatCoverage(start, end string) string {
	if start == "" || end == "" {
		return ""
	}
	if start > end {
		start, end = end, start
	}
	return start + " 至 " + end
}

// findReference scans for a reference number matching the given pattern.
// Short matches are incidental alphanumerics, not reference numbers, so the
// match length is bounded.
func findReference(lines []string, re *regexp.Regexp, minLen, maxLen int) string {
	for _, line := range lines {
		m := re.FindString(line)
		if m == "" {
			continue
		}
		if len(m) > minLen && len(m) < maxLen {
			return m
		}
	}
	return ""
}

// findSubject resolves the insured species, preferring the value behind the
// 保险标的 label over a page-wide vocabulary match
func findSubject(lines []string) string {
	for _, line := range lines {
		idx := strings.Index(line, "保险标的")
		if idx < 0 {
			continue
		}
		rest := line[idx+len("保险标的"):]
		for _, term := range subjectTerms {
			if strings.Contains(rest, term) {
				return term
			}
		}
	}
	for _, line := range lines {
		for _, term := range subjectTerms {
			if strings.Contains(line, term) {
				return term
			}
		}
	}
	return defaultSubject
}

func findInsured(lines []string) string {
	for i, line := range lines {
		if !strings.Contains(line, "被保险人") {
			continue
		}
		for j := i; j < len(lines) && j <= i+2; j++ {
			text := lines[j]
			if j == i {
				if idx := strings.Index(text, "被保险人"); idx >= 0 {
					text = text[idx+len("被保险人"):]
				}
			}
			for _, m := range hanRunRe.FindAllString(text, -1) {
				if len([]rune(m)) >= 2 && len([]rune(m)) <= 4 && !strings.Contains(m, "保险") {
					return m
				}
			}
		}
	}
	return ""
}

func findLocation(lines []string) string {
	for i, line := range lines {
		if !strings.Contains(line, "出险地点") {
			continue
		}
		for j := i; j < len(lines) && j <= i+3; j++ {
			text := lines[j]
			if j == i {
				if idx := strings.Index(text, "出险地点"); idx >= 0 {
					text = text[idx+len("出险地点"):]
				}
			}
			if m := locationRe.FindString(text); m != "" {
				return m
			}
		}
	}
	// Any administrative place name works as a fallback
	for _, line := range lines {
		if m := locationRe.FindString(line); m != "" && !strings.Contains(m, "出险") {
			return m
		}
	}
	return ""
}

func findCause(lines []string) string {
	for i, line := range lines {
		if !strings.Contains(line, "出险原因") {
			continue
		}
		for j := i; j < len(lines) && j <= i+2; j++ {
			text := lines[j]
			if j == i {
				if idx := strings.Index(text, "出险原因"); idx >= 0 {
					text = text[idx+len("出险原因"):]
				}
			}
			for _, m := range hanRunRe.FindAllString(text, -1) {
				if isSubject(m) || strings.Contains(m, "出险") {
					continue
				}
				return m
			}
		}
	}
	return ""
}

func findAmount(lines []string) string {
	keywords := []string{"估计赔款", "估损金额", "损失金额", "赔款金额"}
	for i, line := range lines {
		if !containsAny(line, keywords) {
			continue
		}
		for j := i; j < len(lines) && j <= i+3; j++ {
			if m := amountRe.FindString(lines[j]); m != "" {
				return m
			}
		}
	}
	return ""
}

// findInspectionMethod maps method text, tolerating common OCR misreads of
// 现场查勘
func findInspectionMethod(lines []string) string {
	siteVariants := []string{"现场查勘", "现场查助", "现汤查勘", "现场勘查"}
	for _, line := range lines {
		if containsAny(line, siteVariants) {
			return "现场查勘"
		}
	}
	for _, line := range lines {
		switch {
		case strings.Contains(line, "电话") && strings.Contains(line, "查勘"):
			return "电话查勘"
		case strings.Contains(line, "视频") && strings.Contains(line, "查勘"):
			return "视频查勘"
		case strings.Contains(line, "自助") && strings.Contains(line, "查勘"):
			return "自助查勘"
		}
	}
	return ""
}

func isSubject(s string) bool {
	for _, t := range subjectTerms {
		if s == t {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
