/**
 * Livestock ear tag extraction
 *
 * Ear tag photos carry 7 or 8 digit tag numbers among camera watermarks and
 * timestamps. Candidates are cleaned to alphanumerics, filtered against
 * date-like values and watermark text, then the best 7 and 8 digit tags are
 * kept. A missing width is backfilled from the other and flagged.
 */

package eartag

import (
	"regexp"
	"strings"

	"github.com/king-song823/orcPig/internal/ocr"
)

// Result holds the extracted tag numbers. Backfilled values are derived
// from the other width rather than read off the image.
type Result struct {
	Tag7           string
	Tag8           string
	Tag7Backfilled bool
	Tag8Backfilled bool
}

// Tags returns all non-backfilled tag values
func (r Result) Tags() []string {
	var tags []string
	if r.Tag7 != "" && !r.Tag7Backfilled {
		tags = append(tags, r.Tag7)
	}
	if r.Tag8 != "" && !r.Tag8Backfilled {
		tags = append(tags, r.Tag8)
	}
	return tags
}

// Camera watermark and card-furniture fragments that never contain a tag
var watermarkStoplist = []string{
	"时间", "拍摄", "相机", "客服", "热线", "Logo", "Union", "银联", "GZRC",
}

var dateLikeRe = regexp.MustCompile(`^20\d{2}[01]\d[0-3]\d$`)

var alnumRe = regexp.MustCompile(`[0-9A-Za-z]+`)

// Extract finds the 7 and 8 digit ear tags on the page
func Extract(page *ocr.Page) Result {
	var best7, best8 string
	var best7Score, best8Score float64

	for _, rec := range page.Records {
		if containsAny(rec.Text, watermarkStoplist) {
			continue
		}
		for _, token := range alnumRe.FindAllString(rec.Text, -1) {
			if !validTag(token) {
				continue
			}
			switch len(token) {
			case 7:
				if better7(token, rec.Score, best7, best7Score) {
					best7, best7Score = token, rec.Score
				}
			case 8:
				if best8 == "" || rec.Score > best8Score {
					best8, best8Score = token, rec.Score
				}
			}
		}
	}

	result := Result{Tag7: best7, Tag8: best8}

	// Backfill the missing width from the other tag
	if result.Tag7 == "" && result.Tag8 != "" {
		result.Tag7 = result.Tag8[:7]
		result.Tag7Backfilled = true
	}
	if result.Tag8 == "" && result.Tag7 != "" {
		result.Tag8 = result.Tag7 + "0"
		result.Tag8Backfilled = true
	}

	return result
}

// validTag accepts cleaned tokens of length 7 or 8 that are mostly digits
// and do not look like a date stamp
func validTag(token string) bool {
	if len(token) != 7 && len(token) != 8 {
		return false
	}

	digits := 0
	for _, r := range token {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if float64(digits)/float64(len(token)) < 0.7 {
		return false
	}

	if dateLikeRe.MatchString(token) {
		return false
	}
	// Photo timestamps from recent years leak through OCR as digit runs
	if strings.HasPrefix(token, "202") && len(token) >= 6 {
		return false
	}

	return true
}

// better7 prefers tags starting with 1, then higher OCR confidence
func better7(token string, score float64, current string, currentScore float64) bool {
	if current == "" {
		return true
	}
	tokenLeads := strings.HasPrefix(token, "1")
	currentLeads := strings.HasPrefix(current, "1")
	if tokenLeads != currentLeads {
		return tokenLeads
	}
	return score > currentScore
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
