// Package pipeline turns crawled candidates into stored catalog products.
package pipeline

import (
	"fmt"
	"net/url"
	"time"

	"github.com/lukman83/pkdeals/internal/models"
	"github.com/lukman83/pkdeals/internal/pricing"
	"github.com/lukman83/pkdeals/internal/reviews"
)

// RejectError explains why a candidate was dropped. Rejections are
// item-local and never stop a run.
type RejectError struct {
	URL    string
	Reason string
}

func (e *RejectError) Error() string {
	if e.URL == "" {
		return "rejected: " + e.Reason
	}
	return fmt.Sprintf("rejected %s: %s", e.URL, e.Reason)
}

func reject(c models.Candidate, format string, args ...any) error {
	return &RejectError{URL: c.URL, Reason: fmt.Sprintf(format, args...)}
}

// Normalize parses the scraped prices, fills in the discount when the
// crawler did not declare one and enforces the catalog invariants:
// original price above price and at least MinDiscountPercent off.
func Normalize(c models.Candidate, now time.Time) (*models.Product, error) {
	price, okPrice := pricing.ParsePrice(c.Price)
	original, okOriginal := pricing.ParsePrice(c.OriginalPrice)

	discount := c.DiscountPercent
	if discount == nil && okPrice && okOriginal {
		if pct, ok := pricing.DiscountPercent(price, original); ok {
			discount = &pct
		}
	}

	switch {
	case !okPrice || !okOriginal:
		return nil, reject(c, "missing price (price %q, original %q)", c.Price, c.OriginalPrice)
	case original <= price:
		return nil, reject(c, "original price %.2f not above price %.2f", original, price)
	case discount == nil:
		return nil, reject(c, "no discount")
	case *discount < pricing.MinDiscountPercent:
		return nil, reject(c, "discount %d%% below %d%%", *discount, pricing.MinDiscountPercent)
	}

	source := c.Source
	if source == "" {
		if u, err := url.Parse(c.URL); err == nil {
			source = u.Host
		}
	}
	if c.URL == "" {
		return nil, reject(c, "missing url")
	}

	revs := c.Reviews
	if len(revs) > reviews.MaxReviews {
		revs = revs[:reviews.MaxReviews]
	}

	return &models.Product{
		Title:           c.Title,
		Brand:           c.Brand,
		Price:           price,
		OriginalPrice:   original,
		DiscountPercent: *discount,
		Gender:          optional(c.Gender),
		Category:        optional(c.Category),
		URL:             c.URL,
		ImageURL:        optional(c.ImageURL),
		Source:          source,
		Currency:        c.Currency,
		Tags:            c.Tags,
		Variants:        c.Variants,
		Rating:          c.Rating,
		ReviewCount:     c.ReviewCount,
		Reviews:         revs,
		ScrapedAt:       now.UTC(),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
