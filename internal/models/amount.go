package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts an amount token from a report into a decimal.
// It tolerates thousands separators, currency symbols, leading signs and the
// accounting negative form "(123.45)". Unparseable input yields zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}

	// The currency symbol can sit on either side of the sign ("-$123.45",
	// "$123.45"), so it is removed outright rather than trimmed as a prefix.
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		d = d.Neg()
	}
	return d
}

// FormatAmount renders a decimal with exactly two decimal places, the form
// both CSV outputs use.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
