// Package shopify crawls Shopify storefront collections through the public
// products.json listing endpoint.
package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/lukman83/pkdeals/internal/classify"
	"github.com/lukman83/pkdeals/internal/httputil"
	"github.com/lukman83/pkdeals/internal/models"
	"github.com/lukman83/pkdeals/internal/platform"
	"github.com/lukman83/pkdeals/internal/pricing"
)

// PageSize is the listing page size. A full page means more may follow.
const PageSize = 250

const (
	platformName    = "shopify"
	defaultCurrency = "PKR"
	otherCategory   = "other"
)

// ErrNoHandle is returned for collections whose handle cannot be resolved.
var ErrNoHandle = errors.New("collection has no resolvable handle")

var _ platform.Crawler = (*Crawler)(nil)

// Crawler implements platform.Crawler for Shopify storefronts.
type Crawler struct {
	client *http.Client
	retry  httputil.RetryPolicy
}

// NewCrawler creates a crawler that issues its requests through client.
func NewCrawler(client *http.Client, retry httputil.RetryPolicy) *Crawler {
	return &Crawler{client: client, retry: retry}
}

func (c *Crawler) Name() string { return platformName }

// CrawlCollection pages through one collection. Page n+1 is requested only
// after page n came back full and was fully emitted.
func (c *Crawler) CrawlCollection(ctx context.Context, t platform.Target, emit platform.EmitFunc) error {
	const op = "shopify.CrawlCollection"

	handle := t.Collection.Handle
	if handle == "" {
		handle = HandleFromCollectionURL(t.Collection.URL)
	}
	if handle == "" {
		return fmt.Errorf("%s: %w", op, ErrNoHandle)
	}

	domain := strings.TrimRight(t.Domain, "/")
	log := slog.With("op", op, "domain", domain, "collection", handle)

	for page := 1; ; page++ {
		products, err := c.fetchPage(ctx, domain, handle, page)
		if err != nil {
			return fmt.Errorf("%s: %s page %d: %w", op, handle, page, err)
		}
		log.Debug("page parsed", "page", page, "products", len(products))
		platform.ReportProgress(ctx, fmt.Sprintf("%s/%s page %d: %d products", t.Brand, handle, page, len(products)))

		for _, p := range products {
			cand, ok := buildCandidate(p, domain, t)
			if !ok {
				continue
			}
			if err := emit(ctx, cand); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		if len(products) < PageSize {
			return nil
		}
	}
}

// ListingURL builds the products.json URL for a collection page.
func ListingURL(domain, handle string, page int) string {
	return fmt.Sprintf("%s/collections/%s/products.json?limit=%d&page=%d",
		strings.TrimRight(domain, "/"), url.PathEscape(handle), PageSize, page)
}

func (c *Crawler) fetchPage(ctx context.Context, domain, handle string, page int) ([]listingProduct, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ListingURL(domain, handle, page), nil)
	if err != nil {
		return nil, err
	}
	httputil.Apply(req, httputil.StorefrontJSONHeaders())

	resp, err := httputil.DoWithRetry(c.client, req, c.retry)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}

	var listing listingResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return listing.Products, nil
}

// HandleFromCollectionURL extracts <handle> from .../collections/<handle>[/...][?...].
func HandleFromCollectionURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	var parts []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	for i, seg := range parts {
		if seg == "collections" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

// ProductURL is the canonical storefront page of a product handle.
func ProductURL(domain, handle string) string {
	return strings.TrimRight(domain, "/") + "/products/" + handle
}

func buildCandidate(p listingProduct, domain string, t platform.Target) (models.Candidate, bool) {
	res := ResolveVariants(p.rawVariants())
	if !res.Discounted {
		return models.Candidate{}, false
	}

	tags := []string(p.Tags)
	tagText := strings.Join(tags, " ")

	gender := t.Collection.Gender
	if gender == "" {
		gender = classify.DetectGender(p.Title, tagText)
	}
	category := t.Collection.Category
	if category == "" {
		category = detectCategory(p, tagText)
	}

	pct := res.DiscountPercent
	return models.Candidate{
		Title:           p.Title,
		Brand:           t.Brand,
		Price:           pricing.FormatPrice(res.Price),
		OriginalPrice:   pricing.FormatPrice(res.OriginalPrice),
		DiscountPercent: &pct,
		Gender:          gender,
		Category:        category,
		URL:             ProductURL(domain, p.Handle),
		ImageURL:        p.imageURL(),
		Source:          stripScheme(domain),
		Currency:        defaultCurrency,
		Tags:            tags,
		Variants:        res.Variants,
	}, true
}

// detectCategory classifies title and tags, then falls back to the product
// handle, the tags alone and the title alone before settling on "other".
func detectCategory(p listingProduct, tagText string) string {
	for _, texts := range [][]string{
		{p.Title, tagText},
		{p.Handle},
		{tagText},
		{p.Title},
	} {
		if c := classify.DetectCategory(texts...); c != "" {
			return c
		}
	}
	return otherCategory
}

func stripScheme(domain string) string {
	domain = strings.TrimPrefix(domain, "https://")
	return strings.TrimPrefix(domain, "http://")
}
