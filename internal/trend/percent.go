package trend

import (
	"github.com/shopspring/decimal"
)

// NotAvailable marks a statistic that cannot be computed.
const NotAvailable = "N/A"

var hundred = decimal.NewFromInt(100)

// PercentChange formats (newVal-oldVal)/oldVal*100 with one decimal place
// and an explicit sign ("+50.0%", "-100.0%"). It returns NotAvailable when
// either endpoint is unknown or oldVal is zero.
func PercentChange(oldVal, newVal *float64) string {
	if oldVal == nil || newVal == nil || *oldVal == 0 {
		return NotAvailable
	}
	oldD := decimal.NewFromFloat(*oldVal)
	pct := decimal.NewFromFloat(*newVal).Sub(oldD).Div(oldD).Mul(hundred).Round(1)
	s := pct.StringFixed(1) + "%"
	if pct.Sign() >= 0 {
		return "+" + s
	}
	return s
}

// Delta returns newVal-oldVal, or nil when either is unknown.
func Delta(oldVal, newVal *float64) *float64 {
	if oldVal == nil || newVal == nil {
		return nil
	}
	d := decimal.NewFromFloat(*newVal).Sub(decimal.NewFromFloat(*oldVal)).InexactFloat64()
	return &d
}

// FormatValue renders v with two decimals, or NotAvailable when unknown.
func FormatValue(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return decimal.NewFromFloat(*v).StringFixed(2)
}
