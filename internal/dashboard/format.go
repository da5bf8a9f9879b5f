package dashboard

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency formats v as $1,234.56.
func Currency(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if neg && strings.Trim(s, "0.") == "" {
		neg = false
	}
	out := "$" + Thousands(s)
	if neg {
		return "-" + out
	}
	return out
}

// Amount formats v with two decimals and thousands separators.
func Amount(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	if strings.HasPrefix(s, "-") {
		return "-" + Thousands(s[1:])
	}
	return Thousands(s)
}

// Thousands inserts commas into the integer part of an unsigned decimal
// string.
func Thousands(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
