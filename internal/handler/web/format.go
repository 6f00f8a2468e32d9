package web

import (
	"math"
	"strings"
	"time"

	"StockInsight/pkg/util"

	"github.com/shopspring/decimal"
)

const notAvailable = "n/a"

// Money renders v as dollars with two decimals and thousands separators.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	s := decimal.NewFromFloat(v).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	out := "$" + groupThousands(whole) + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// Quantity renders a whole count with thousands separators.
func Quantity(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	s := decimal.NewFromFloat(v).Round(0).String()
	if strings.HasPrefix(s, "-") {
		return "-" + groupThousands(s[1:])
	}
	return groupThousands(s)
}

// Fixed renders v with places decimals.
func Fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// Stamp renders a bar time for tables.
func Stamp(t time.Time) string {
	if s := util.FormatMinute(t); s != "" {
		return s
	}
	return notAvailable
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
