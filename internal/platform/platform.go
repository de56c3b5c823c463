package platform

import (
	"context"

	"github.com/lukman83/pkdeals/internal/models"
)

// Target is one collection of one brand, ready to crawl.
type Target struct {
	Domain     string
	Brand      string
	Collection models.Collection
}

// EmitFunc hands a discounted candidate to the next pipeline stage.
// It blocks until the stage accepts the item or ctx is done.
type EmitFunc func(ctx context.Context, c models.Candidate) error

// Crawler walks a storefront collection and emits discounted candidates.
type Crawler interface {
	Name() string
	CrawlCollection(ctx context.Context, t Target, emit EmitFunc) error
}
