/**
 * Bank card extraction
 *
 * Finds the card number among 16 to 19 digit runs (separators tolerated),
 * scores candidates by Luhn validity and UnionPay context, and resolves the
 * issuing bank from the BIN prefix, literal bank names on the card, or the
 * card network.
 */

package bankcard

import (
	"regexp"
	"strings"

	"github.com/king-song823/orcPig/internal/ocr"
)

// Result holds the extracted bank card fields
type Result struct {
	CardNumber    string
	BankName      string
	LowConfidence bool
}

var cardRunRe = regexp.MustCompile(`(?:\d[\s\-.]?){16,19}`)

var unionPayMarkers = []string{"银联", "UnionPay", "Union", "UNION"}
var ruralCreditMarkers = []string{"农信", "信用社", "农商行", "农商银行"}

// Bank name fragments that are OCR noise, watermarks, or card furniture
var bankNameNoise = []string{
	"ATM", "Union", "银联", "GZRC", "银用", "Card", "Logo", "客服", "热线", "电话", "服务",
}

var bankNameRe = regexp.MustCompile(`\p{Han}{2,8}(?:银行|农信|信用社|农商行)`)

// Luhn reports whether a digit string passes the mod-10 check
func Luhn(number string) bool {
	if number == "" {
		return false
	}

	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Extractor extracts bank card fields from a recognized page
type Extractor struct {
	strict bool
}

// New creates an extractor. Strict mode drops candidates that fail Luhn.
func New(strict bool) *Extractor {
	return &Extractor{strict: strict}
}

type candidate struct {
	number string
	score  int
}

// Extract finds the card number and issuing bank on the page
func (e *Extractor) Extract(page *ocr.Page) Result {
	lines := page.Lines()
	fullText := page.Text()

	hasUnionPay := containsAny(fullText, unionPayMarkers)
	hasRuralCredit := containsAny(fullText, ruralCreditMarkers)

	number, luhnOK := e.pickNumber(lines, hasUnionPay, hasRuralCredit)
	name := resolveBankName(number, lines, hasRuralCredit)

	return Result{
		CardNumber:    number,
		BankName:      name,
		LowConfidence: number != "" && !luhnOK,
	}
}

// pickNumber collects digit-run candidates and selects the best one.
// Cards starting 6217 win outright, then any 62 card, then the top score.
func (e *Extractor) pickNumber(lines []string, hasUnionPay, hasRuralCredit bool) (string, bool) {
	var candidates []candidate
	for _, line := range lines {
		for _, run := range cardRunRe.FindAllString(line, -1) {
			digits := stripSeparators(run)
			if len(digits) < 16 || len(digits) > 19 {
				continue
			}
			if e.strict && !Luhn(digits) {
				continue
			}
			candidates = append(candidates, candidate{
				number: digits,
				score:  scoreCandidate(digits, hasUnionPay, hasRuralCredit),
			})
		}
	}

	if len(candidates) == 0 {
		return "", false
	}

	best := func(pred func(string) bool) (candidate, bool) {
		var top candidate
		found := false
		for _, c := range candidates {
			if !pred(c.number) {
				continue
			}
			if !found || c.score > top.score {
				top, found = c, true
			}
		}
		return top, found
	}

	if c, ok := best(func(n string) bool { return strings.HasPrefix(n, "6217") }); ok {
		return c.number, Luhn(c.number)
	}
	if c, ok := best(func(n string) bool { return strings.HasPrefix(n, "62") }); ok {
		return c.number, Luhn(c.number)
	}
	c, _ := best(func(string) bool { return true })
	return c.number, Luhn(c.number)
}

func scoreCandidate(digits string, hasUnionPay, hasRuralCredit bool) int {
	score := 0
	if Luhn(digits) {
		score += 3
	}
	if strings.HasPrefix(digits, "62") {
		score += 2
		if hasUnionPay {
			score += 2
		}
	}
	if strings.HasPrefix(digits, "6217") && hasRuralCredit {
		score += 2
	}
	if len(digits) == 19 {
		score++
	}
	return score
}

// resolveBankName tries, in order: BIN prefix lookup, a literal bank name
// printed on the card, network inference from the leading digits, and the
// rural credit fallback for 6217 cards.
func resolveBankName(cardNumber string, lines []string, hasRuralCredit bool) string {
	if cardNumber != "" {
		if name := lookupBIN(cardNumber); name != "" {
			return name
		}
	}

	for _, line := range lines {
		for _, m := range bankNameRe.FindAllString(line, -1) {
			if !containsAny(m, bankNameNoise) {
				return m
			}
		}
	}

	if cardNumber != "" {
		if hasRuralCredit && strings.HasPrefix(cardNumber, "6217") {
			return "农村信用社"
		}
		switch {
		case strings.HasPrefix(cardNumber, "62"):
			return "中国银联"
		case strings.HasPrefix(cardNumber, "4"):
			return "Visa"
		case strings.HasPrefix(cardNumber, "5"):
			return "MasterCard"
		case strings.HasPrefix(cardNumber, "3"):
			return "American Express"
		case strings.HasPrefix(cardNumber, "65"), strings.HasPrefix(cardNumber, "6"):
			return "Discover"
		}
	}

	return ""
}

func stripSeparators(s string) string {
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
