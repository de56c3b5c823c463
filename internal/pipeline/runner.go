package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lukman83/pkdeals/internal/models"
	"github.com/lukman83/pkdeals/internal/platform"
	"github.com/lukman83/pkdeals/internal/reviews"
	"github.com/lukman83/pkdeals/internal/storage"
)

// ReviewSource fetches the review data of one product page.
type ReviewSource interface {
	Fetch(ctx context.Context, productURL string) (reviews.Result, error)
}

// Publisher is notified after every successful upsert.
type Publisher interface {
	PublishUpserted(ctx context.Context, p *models.Product) error
}

type Options struct {
	Registry *platform.Registry
	Reviews  ReviewSource
	Store    storage.Store
	// Publisher is optional.
	Publisher Publisher
	// MaxConcurrent bounds the collections crawled at once.
	MaxConcurrent int
	// ReviewWorkers is the number of concurrent detail-page fetchers.
	ReviewWorkers int
	// OnStored, if set, sees every stored product from the sink goroutine.
	OnStored func(*models.Product)
	Logger   *slog.Logger
	Now      func() time.Time
}

// Stats summarizes one run.
type Stats struct {
	RunID             string `json:"run_id"`
	Collections       int64  `json:"collections"`
	FailedCollections int64  `json:"failed_collections"`
	Candidates        int64  `json:"candidates"`
	ReviewFailures    int64  `json:"review_failures"`
	Rejected          int64  `json:"rejected"`
	Stored            int64  `json:"stored"`
	Published         int64  `json:"published"`
	PublishFailures   int64  `json:"publish_failures"`
}

type counters struct {
	collections, failedCollections, candidates atomic.Int64
	reviewFailures, rejected, stored           atomic.Int64
	published, publishFailures                 atomic.Int64
}

func (c *counters) snapshot(runID string) Stats {
	return Stats{
		RunID:             runID,
		Collections:       c.collections.Load(),
		FailedCollections: c.failedCollections.Load(),
		Candidates:        c.candidates.Load(),
		ReviewFailures:    c.reviewFailures.Load(),
		Rejected:          c.rejected.Load(),
		Stored:            c.stored.Load(),
		Published:         c.published.Load(),
		PublishFailures:   c.publishFailures.Load(),
	}
}

// Runner wires crawlers, the review stage and the store:
//
//	crawlers -> candidates -> review workers -> enriched -> sink (normalize, upsert)
//
// Crawl, review and validation failures are logged and counted. A store
// failure cancels the run.
type Runner struct {
	opts Options
}

func NewRunner(opts Options) *Runner {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.ReviewWorkers <= 0 {
		opts.ReviewWorkers = 8
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{opts: opts}
}

// Run crawls every collection of the given brands.
func (r *Runner) Run(ctx context.Context, brands []models.Brand) (Stats, error) {
	const op = "pipeline.Run"

	runID := uuid.NewString()
	log := r.opts.Logger.With("op", op, "run_id", runID)
	var cnt counters

	if err := r.opts.Store.EnsureIndexes(ctx); err != nil {
		return cnt.snapshot(runID), fmt.Errorf("%s: %w", op, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	candidates := make(chan models.Candidate, r.opts.ReviewWorkers)
	enriched := make(chan models.Candidate, r.opts.ReviewWorkers)

	g.Go(func() error {
		defer close(candidates)
		r.crawl(gctx, log, brands, candidates, &cnt)
		return nil
	})

	var workers sync.WaitGroup
	for range r.opts.ReviewWorkers {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			return r.enrich(gctx, log, candidates, enriched, &cnt)
		})
	}
	g.Go(func() error {
		workers.Wait()
		close(enriched)
		return nil
	})

	g.Go(func() error {
		return r.sink(gctx, log, enriched, &cnt)
	})

	err := g.Wait()
	stats := cnt.snapshot(runID)
	log.Info("run finished",
		"collections", stats.Collections,
		"failed_collections", stats.FailedCollections,
		"candidates", stats.Candidates,
		"rejected", stats.Rejected,
		"stored", stats.Stored,
	)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

func (r *Runner) crawl(ctx context.Context, log *slog.Logger, brands []models.Brand, out chan<- models.Candidate, cnt *counters) {
	emit := func(ctx context.Context, c models.Candidate) error {
		select {
		case out <- c:
			cnt.candidates.Add(1)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var crawl errgroup.Group
	crawl.SetLimit(r.opts.MaxConcurrent)

	for _, b := range brands {
		crawler, err := r.opts.Registry.Get(b.Platform)
		if err != nil {
			log.Warn("brand skipped", "brand", b.Key, "error", err)
			cnt.failedCollections.Add(int64(len(b.Collections)))
			continue
		}

		for _, col := range b.Collections {
			if ctx.Err() != nil {
				break
			}
			t := platform.Target{Domain: b.Domain, Brand: b.Name, Collection: col}
			crawl.Go(func() error {
				err := crawler.CrawlCollection(ctx, t, emit)
				switch {
				case err == nil:
					cnt.collections.Add(1)
				case ctx.Err() != nil:
				default:
					cnt.failedCollections.Add(1)
					log.Warn("collection skipped",
						"brand", b.Key,
						"collection", collectionLabel(col),
						"error", err,
					)
				}
				return nil
			})
		}
	}
	crawl.Wait()
}

func collectionLabel(c models.Collection) string {
	if c.Handle != "" {
		return c.Handle
	}
	return c.URL
}

func (r *Runner) enrich(ctx context.Context, log *slog.Logger, in <-chan models.Candidate, out chan<- models.Candidate, cnt *counters) error {
	for c := range in {
		res, err := r.opts.Reviews.Fetch(ctx, c.URL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			cnt.reviewFailures.Add(1)
			log.Warn("product skipped: detail fetch failed", "url", c.URL, "error", err)
			continue
		}
		res.Apply(&c)

		select {
		case out <- c:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *Runner) sink(ctx context.Context, log *slog.Logger, in <-chan models.Candidate, cnt *counters) error {
	for c := range in {
		p, err := Normalize(c, r.opts.Now())
		if err != nil {
			var rej *RejectError
			if !errors.As(err, &rej) {
				return err
			}
			cnt.rejected.Add(1)
			log.Debug("candidate rejected", "url", rej.URL, "reason", rej.Reason)
			continue
		}

		if err := r.opts.Store.Upsert(ctx, p); err != nil {
			return fmt.Errorf("store %s: %w", p.URL, err)
		}
		n := cnt.stored.Add(1)
		platform.ReportProgress(ctx, fmt.Sprintf("%d stored, latest %s", n, p.Title))

		if r.opts.Publisher != nil {
			if err := r.opts.Publisher.PublishUpserted(ctx, p); err != nil {
				cnt.publishFailures.Add(1)
				log.Warn("publish failed", "url", p.URL, "error", err)
			} else {
				cnt.published.Add(1)
			}
		}
		if r.opts.OnStored != nil {
			r.opts.OnStored(p)
		}
	}
	return nil
}
