package screenshot

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var dateSepRe = regexp.MustCompile(`[.:/\s]`)
var datePartsRe = regexp.MustCompile(`(\d{4})-?(\d{1,2})-?(\d{1,2})`)

// NormalizeDate canonicalizes OCR date text to YYYY-MM-DD. Separator
// variants (2025.06.27, 2025/6/27, 20250627) all normalize to the same
// form; the function is idempotent. Returns "" when no plausible date is
// present.
func NormalizeDate(s string) string {
	cleaned := dateSepRe.ReplaceAllString(s, "-")

	m := datePartsRe.FindStringSubmatch(cleaned)
	if m == nil {
		return ""
	}

	year := atoi(m[1])
	month := atoi(m[2])
	day := atoi(m[3])

	if year < 2000 || year > 2030 || month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// AddDays shifts a normalized date by n days. Returns the input unchanged
// when it does not parse.
func AddDays(date string, n int) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format("2006-01-02")
}

// findDateNear locates the first record containing any of the keywords and
// scans a window of records around it, nearest first, forward before
// backward at equal distance. With preferLater set, the latest date in the
// window wins instead of the nearest.
func findDateNear(lines []string, keywords []string, window int, preferLater bool) string {
	for i, line := range lines {
		if !containsAny(line, keywords) {
			continue
		}

		best := ""
		for off := 0; off <= window; off++ {
			indices := []int{i + off}
			if off > 0 {
				indices = append(indices, i-off)
			}
			for _, j := range indices {
				if j < 0 || j >= len(lines) {
					continue
				}
				text := lines[j]
				if j == i {
					// Skip the keyword itself so a digit inside it cannot
					// masquerade as a date fragment
					if idx := lastKeywordIndex(text, keywords); idx >= 0 {
						text = text[idx:]
					}
				}
				d := NormalizeDate(text)
				if d == "" {
					continue
				}
				if !preferLater {
					return d
				}
				if d > best {
					best = d
				}
			}
		}
		if best != "" {
			return best
		}
	}
	return ""
}

// collectDatesNear gathers every distinct date within the window of any
// keyword occurrence, sorted ascending
func collectDatesNear(lines []string, keywords []string, window int) []string {
	seen := map[string]bool{}
	var dates []string
	for i, line := range lines {
		if !containsAny(line, keywords) {
			continue
		}
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		for j := lo; j < len(lines) && j <= i+window; j++ {
			text := lines[j]
			if j == i {
				if idx := lastKeywordIndex(text, keywords); idx >= 0 {
					text = text[idx:]
				}
			}
			if d := NormalizeDate(text); d != "" && !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}
	sort.Strings(dates)
	return dates
}

func lastKeywordIndex(s string, keywords []string) int {
	idx := -1
	for _, kw := range keywords {
		if i := strings.LastIndex(s, kw); i >= 0 && i+len(kw) > idx {
			idx = i + len(kw)
		}
	}
	return idx
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
