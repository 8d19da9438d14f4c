package spreadsheet

import (
	"fmt"
	"strings"

	"beneficiary-data/internal/domain"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes exported amounts.
const CurrencySymbol = "₱"

// FormatAmount renders a non-zero amount as "₱1,234.50" and a negative one
// as "-₱5.00". Zero renders as "". Digits are grouped on the exact decimal
// text, so amounts of any size keep every digit.
func FormatAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	return sign + CurrencySymbol + groupThousands(whole) + "." + frac
}

// groupThousands inserts "," every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3)
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// NormalizeBirthMonth turns month names and numbers 1-12 into "01".."12" and
// returns anything else unchanged.
func NormalizeBirthMonth(s string) string {
	m, ok := domain.ParseMonth(s)
	if !ok {
		return s
	}
	return fmt.Sprintf("%02d", m)
}
