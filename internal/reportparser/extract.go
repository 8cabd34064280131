package reportparser

import (
	"regexp"
	"strings"
	"time"

	"wrh/nightaudit/internal/dateutils"
	"wrh/nightaudit/internal/models"
)

// Report headers name the property either with an explicit label or as a
// display name containing a lodging keyword.
var (
	propertyLabelRe = regexp.MustCompile(`(?i)^\s*(?:property|property name|hotel)\s*[:#]\s*(.+?)\s*$`)

	propertyKeywords = []string{"HOTEL", "INN", "RESORT", "LODGE", "SUITES", "MOTEL"}

	dateLabelRe = regexp.MustCompile(`(?i)\b(?:business date|audit date|report date|date)\s*[:#]?\s*([A-Za-z0-9,/ -]+?)\s*$`)

	bareDateRe = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4}|[A-Z][a-z]+ \d{1,2}, \d{4})\b`)

	// An account line ends in a money amount, optionally parenthesised or
	// trailing-minus negative.
	amountTailRe = regexp.MustCompile(`(\(?-?\$?[\d,]+\.\d{2}\)?-?)\s*$`)

	// Single-token codes: short alphanumerics like 91, 92, RC, RD, 1001.
	codeTokenRe = regexp.MustCompile(`^[A-Z0-9]{1,6}$`)
)

// multiWordCodes are the known codes that contain spaces; they must be
// checked before the single-token rule.
var multiWordCodes = []string{
	"GUEST LEDGER",
	"CITY LEDGER",
	"ADVANCE DEPOSIT",
	"DEPOSIT LEDGER",
}

// cardBrands maps a token found in a description or payment column to the
// canonical card-brand name.
var cardBrands = map[string]string{
	"VISA":             "VISA",
	"MASTERCARD":       "MASTERCARD",
	"MASTER CARD":      "MASTERCARD",
	"MC":               "MASTERCARD",
	"AMEX":             "AMEX",
	"AMERICAN EXPRESS": "AMEX",
	"DISCOVER":         "DISCOVER",
	"DINERS":           "DINERS",
	"DINERS CLUB":      "DINERS",
	"JCB":              "JCB",
}

// DetectCardBrand returns the canonical card brand named in s, or "".
// Longer tokens are checked first so "MASTER CARD" does not match as "MC".
func DetectCardBrand(s string) string {
	upper := strings.ToUpper(s)
	brands := []string{"AMERICAN EXPRESS", "MASTER CARD", "MASTERCARD", "DINERS CLUB", "DISCOVER", "DINERS", "VISA", "AMEX", "JCB"}
	for _, token := range brands {
		if containsToken(upper, token) {
			return cardBrands[token]
		}
	}
	return ""
}

func containsToken(haystack, token string) bool {
	idx := strings.Index(haystack, token)
	if idx < 0 {
		return false
	}
	// Reject matches embedded inside a longer word.
	if idx > 0 && isWordChar(haystack[idx-1]) {
		return false
	}
	end := idx + len(token)
	if end < len(haystack) && isWordChar(haystack[end]) {
		return false
	}
	return true
}

func isWordChar(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

// extractPropertyName scans the header lines for the property's display
// name. Label form wins; otherwise the first line carrying a lodging keyword
// and no amount is taken as the name.
func extractPropertyName(lines []string) string {
	limit := len(lines)
	if limit > 15 {
		limit = 15
	}
	for _, line := range lines[:limit] {
		if m := propertyLabelRe.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	for _, line := range lines[:limit] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || amountTailRe.MatchString(trimmed) {
			continue
		}
		upper := strings.ToUpper(trimmed)
		for _, kw := range propertyKeywords {
			if containsToken(upper, kw) {
				return trimmed
			}
		}
	}
	return ""
}

// extractBusinessDate scans header and footer lines for a business-date
// token. Returns the zero time when none is found.
func extractBusinessDate(lines []string) time.Time {
	candidates := headerAndFooter(lines, 10)

	for _, line := range candidates {
		if m := dateLabelRe.FindStringSubmatch(line); m != nil {
			if t, _, err := dateutils.ParseDate(m[1]); err == nil {
				return t
			}
		}
	}
	for _, line := range candidates {
		if m := bareDateRe.FindStringSubmatch(line); m != nil {
			if t, _, err := dateutils.ParseDate(m[1]); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func headerAndFooter(lines []string, n int) []string {
	if len(lines) <= 2*n {
		return lines
	}
	out := make([]string, 0, 2*n)
	out = append(out, lines[:n]...)
	out = append(out, lines[len(lines)-n:]...)
	return out
}

// extractAccountLines walks the report body and emits one AccountLine per
// recognized code/description/amount row. Unrecognized lines are skipped
// without failing the file.
func extractAccountLines(lines []string) []models.AccountLine {
	var out []models.AccountLine
	for _, raw := range lines {
		line := strings.TrimRight(raw, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if al, ok := parseAccountLine(line); ok {
			out = append(out, al)
		}
	}
	return out
}

// parseAccountLine recognizes fixed-width or delimited
// code/description/amount triples. The code may be a short alphanumeric
// token or one of the known multi-word ledger codes.
func parseAccountLine(line string) (models.AccountLine, bool) {
	m := amountTailRe.FindStringSubmatchIndex(line)
	if m == nil {
		return models.AccountLine{}, false
	}
	amountToken := line[m[2]:m[3]]
	head := strings.TrimSpace(line[:m[2]])
	if head == "" {
		return models.AccountLine{}, false
	}

	code, description, ok := splitCodeAndDescription(head)
	if !ok {
		return models.AccountLine{}, false
	}

	return models.AccountLine{
		SourceCode:    code,
		Description:   description,
		Amount:        models.ParseAmount(amountToken),
		PaymentMethod: DetectCardBrand(description),
		OriginalLine:  line,
	}, true
}

func splitCodeAndDescription(head string) (string, string, bool) {
	upper := strings.ToUpper(head)
	for _, mwc := range multiWordCodes {
		if strings.HasPrefix(upper, mwc) {
			rest := strings.TrimSpace(head[len(mwc):])
			if rest == "" {
				// Rows like "GUEST LEDGER    1,234.56" carry no separate
				// description; reuse the code.
				rest = mwc
			}
			return mwc, rest, true
		}
	}

	fields := strings.Fields(head)
	if len(fields) < 2 {
		return "", "", false
	}
	code := strings.ToUpper(fields[0])
	if !codeTokenRe.MatchString(code) {
		return "", "", false
	}
	return code, strings.Join(fields[1:], " "), true
}
