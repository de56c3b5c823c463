package shopify

import (
	"strconv"

	"github.com/lukman83/pkdeals/internal/models"
	"github.com/lukman83/pkdeals/internal/pricing"
)

const defaultVariantTitle = "Default Title"

// Resolution is the outcome of scanning a product's variants.
type Resolution struct {
	Variants        []models.Variant
	Price           float64
	OriginalPrice   float64
	DiscountPercent int
	// Discounted is false when no variant has compare-at above price.
	Discounted bool
}

// ResolveVariants derives per-variant records and picks the variant with the
// largest relative discount (compare-at minus price over compare-at). Ties
// keep the first variant seen. Variants whose discount rounds to zero never win.
func ResolveVariants(raw []models.RawVariant) Resolution {
	res := Resolution{Variants: make([]models.Variant, 0, len(raw))}
	bestRatio := 0.0

	for _, rv := range raw {
		price, compare := variantPrices(rv)
		res.Variants = append(res.Variants, models.Variant{
			Size:              variantSize(rv),
			InStock:           rv.Available,
			Price:             price,
			OriginalPrice:     compare,
			SKU:               rv.SKU,
			InventoryQuantity: rv.InventoryQuantity,
			VariantID:         rv.ID,
		})

		if price == nil || compare == nil {
			continue
		}
		pct, ok := pricing.DiscountPercent(*price, *compare)
		if !ok || pct <= 0 {
			continue
		}
		ratio := (*compare - *price) / *compare
		if ratio <= bestRatio {
			continue
		}
		bestRatio = ratio
		res.DiscountPercent = pct
		res.Price = *price
		res.OriginalPrice = *compare
		res.Discounted = true
	}
	return res
}

// variantPrices parses both prices; if either is malformed neither is kept.
func variantPrices(rv models.RawVariant) (price, compare *float64) {
	p, okP := parseDecimal(rv.Price)
	c, okC := parseDecimal(rv.CompareAtPrice)
	if !okP || !okC {
		return nil, nil
	}
	return p, c
}

func parseDecimal(s *string) (*float64, bool) {
	if s == nil || *s == "" {
		return nil, true
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil, false
	}
	return &f, true
}

func variantSize(rv models.RawVariant) *string {
	if rv.Title != "" && rv.Title != defaultVariantTitle {
		s := rv.Title
		return &s
	}
	if rv.Option1 != nil && *rv.Option1 != "" && *rv.Option1 != defaultVariantTitle {
		s := *rv.Option1
		return &s
	}
	return nil
}
