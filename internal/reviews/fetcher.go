package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lukman83/pkdeals/internal/cache"
	"github.com/lukman83/pkdeals/internal/httputil"
)

const cacheKeyPrefix = "reviews:"

// Fetcher downloads product pages and extracts their reviews. Results are
// cached by product URL because one product is often listed in several
// collections of the same brand.
type Fetcher struct {
	client *http.Client
	retry  httputil.RetryPolicy
	cache  cache.Cache
	ttl    time.Duration
}

// NewFetcher returns a Fetcher. A nil cache disables caching.
func NewFetcher(client *http.Client, retry httputil.RetryPolicy, c cache.Cache, ttl time.Duration) *Fetcher {
	if c == nil {
		c = cache.Nop{}
	}
	return &Fetcher{client: client, retry: retry, cache: c, ttl: ttl}
}

// Fetch returns the review data of the page at productURL.
func (f *Fetcher) Fetch(ctx context.Context, productURL string) (Result, error) {
	const op = "reviews.Fetch"
	log := slog.With("op", op, "url", productURL)

	key := cacheKeyPrefix + productURL
	if raw, err := f.cache.Get(ctx, key); err == nil {
		var res Result
		if err := json.Unmarshal(raw, &res); err == nil {
			log.Debug("cache hit")
			return res, nil
		}
		log.Warn("dropping undecodable cache entry")
		_ = f.cache.Delete(ctx, key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn("cache read failed", "error", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, productURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	httputil.Apply(req, httputil.BrowserHeaders())

	resp, err := httputil.DoWithRetry(f.client, req, f.retry)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return Result{}, fmt.Errorf("%s: read body: %w", op, err)
	}
	res, err := Extract(body)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	log.Debug("reviews extracted", "widget", res.Widget, "count", res.ReviewCount, "listed", len(res.Reviews))

	if raw, err := json.Marshal(res); err == nil {
		if err := f.cache.Set(ctx, key, raw, f.ttl); err != nil {
			log.Warn("cache write failed", "error", err)
		}
	}
	return res, nil
}
