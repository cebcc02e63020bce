package report

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders d with two decimal places, thousands separators and
// the given symbol: "₹1,234.50", "-₹12.00".
func FormatCurrency(symbol string, d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() && !d.Round(2).IsZero() {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// PercentageChange returns (new-old)/old*100. A zero old value yields +Inf.
func PercentageChange(old, new float64) float64 {
	if old == 0 {
		return math.Inf(1)
	}
	return (new - old) / old * 100
}
