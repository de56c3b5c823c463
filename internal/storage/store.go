// Package storage persists normalized products keyed by their storefront URL.
package storage

import (
	"context"
	"errors"

	"github.com/lukman83/pkdeals/internal/models"
)

// ErrNotFound is returned by Get when no product has the requested URL.
var ErrNotFound = errors.New("product not found")

// Store is the catalog the crawl writes into. Upsert must be atomic in the
// backend: it is the only synchronization point between concurrent crawls.
type Store interface {
	// EnsureIndexes creates the catalog indexes. Safe to call repeatedly.
	EnsureIndexes(ctx context.Context) error
	// Upsert replaces the product stored under p.URL or inserts it. p.ID is
	// set whenever the backend reports the stored identity.
	Upsert(ctx context.Context, p *models.Product) error
	Get(ctx context.Context, url string) (*models.Product, error)
	Count(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}

// Index names shared by every backend.
const (
	IndexBrand          = "brand_idx"
	IndexDiscount       = "discount_percent_idx"
	IndexGenderCategory = "gender_category_idx"
	IndexSource         = "source_idx"
	IndexURLUnique      = "url_unique_string_only"
)
