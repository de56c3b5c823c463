// Package pricing holds the price parsing and discount arithmetic shared by
// the variant resolver and the normalization stage.
package pricing

import (
	"math"
	"strconv"
	"strings"
)

// MinDiscountPercent is the smallest discount a listing may carry to be stored.
const MinDiscountPercent = 5

var currencyReplacer = strings.NewReplacer(",", "", "PKR", "", "Rs.", "", "Rs", "")

// ParsePrice extracts a number from scraped price text such as "Rs. 2,999"
// or "PKR1,050.50". It reports false when no number can be recovered.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(currencyReplacer.Replace(s))

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// DiscountPercent returns the whole-number discount of price against
// original, rounding half away from zero. ok is false unless
// original > price > 0.
func DiscountPercent(price, original float64) (pct int, ok bool) {
	if price <= 0 || original <= price {
		return 0, false
	}
	return int(math.Round((original - price) / original * 100)), true
}

// FormatPrice renders a price the way storefront JSON does ("1999.00").
func FormatPrice(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
