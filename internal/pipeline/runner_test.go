package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/pkdeals/internal/models"
	"github.com/lukman83/pkdeals/internal/platform"
	"github.com/lukman83/pkdeals/internal/reviews"
	"github.com/lukman83/pkdeals/internal/storage"
)

// fakeCrawler serves canned candidates per collection handle.
type fakeCrawler struct {
	byHandle map[string][]models.Candidate
	fail     map[string]error
}

func (f *fakeCrawler) Name() string { return "fake" }

func (f *fakeCrawler) CrawlCollection(ctx context.Context, t platform.Target, emit platform.EmitFunc) error {
	if err := f.fail[t.Collection.Handle]; err != nil {
		return err
	}
	for _, c := range f.byHandle[t.Collection.Handle] {
		c.Brand = t.Brand
		if err := emit(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

type fakeReviews struct {
	mu     sync.Mutex
	failOn map[string]bool
	calls  int
}

func (f *fakeReviews) Fetch(_ context.Context, url string) (reviews.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failOn[url] {
		return reviews.Result{}, errors.New("detail page 503")
	}
	rating := 4.0
	return reviews.Result{
		Rating:      &rating,
		ReviewCount: 2,
		Reviews:     []models.Review{{Author: "Hina", Rating: 4}},
		Widget:      "judgeme",
	}, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (p *recordingPublisher) PublishUpserted(_ context.Context, prod *models.Product) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.urls = append(p.urls, prod.URL)
	return p.err
}

func item(handle, price, original string) models.Candidate {
	return models.Candidate{
		Title:         "Item " + handle,
		Price:         price,
		OriginalPrice: original,
		URL:           "https://shop.pk/products/" + handle,
		Source:        "shop.pk",
		Currency:      "PKR",
	}
}

func newStore(t *testing.T) *storage.SQLStore {
	t.Helper()
	s, err := storage.NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func brand(platformName string, handles ...string) models.Brand {
	b := models.Brand{Key: "shop", Platform: platformName, Domain: "https://shop.pk", Name: "Shop"}
	for _, h := range handles {
		b.Collections = append(b.Collections, models.Collection{Handle: h})
	}
	return b
}

func newRunner(crawler platform.Crawler, rev ReviewSource, store storage.Store, pub Publisher) *Runner {
	reg := platform.NewRegistry()
	reg.Register("fake", crawler)
	opts := Options{
		Registry:      reg,
		Reviews:       rev,
		Store:         store,
		MaxConcurrent: 2,
		ReviewWorkers: 3,
		Now:           func() time.Time { return fixedNow },
	}
	if pub != nil {
		opts.Publisher = pub
	}
	return NewRunner(opts)
}

func TestRunStoresDiscountedItems(t *testing.T) {
	crawler := &fakeCrawler{byHandle: map[string][]models.Candidate{
		"sale": {
			item("a", "1999.00", "2999.00"),
			item("b", "1000.00", "1030.00"),
		},
		"women": {item("c", "500.00", "1000.00")},
	}}
	store := newStore(t)
	pub := &recordingPublisher{}

	stats, err := newRunner(crawler, &fakeReviews{}, store, pub).
		Run(context.Background(), []models.Brand{brand("fake", "sale", "women")})
	require.NoError(t, err)

	assert.NotEmpty(t, stats.RunID)
	assert.EqualValues(t, 2, stats.Collections)
	assert.EqualValues(t, 3, stats.Candidates)
	assert.EqualValues(t, 1, stats.Rejected)
	assert.EqualValues(t, 2, stats.Stored)
	assert.EqualValues(t, 2, stats.Published)
	assert.ElementsMatch(t, []string{"https://shop.pk/products/a", "https://shop.pk/products/c"}, pub.urls)

	_, err = store.Get(context.Background(), "https://shop.pk/products/b")
	assert.ErrorIs(t, err, storage.ErrNotFound, "1000/1030 is below the floor")

	got, err := store.Get(context.Background(), "https://shop.pk/products/a")
	require.NoError(t, err)
	assert.Equal(t, 33, got.DiscountPercent)
	assert.Equal(t, "Shop", got.Brand)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4.0, *got.Rating)
	assert.Len(t, got.Reviews, 1)
}

func TestRunIsIdempotentPerURL(t *testing.T) {
	store := newStore(t)
	b := []models.Brand{brand("fake", "sale")}

	first := &fakeCrawler{byHandle: map[string][]models.Candidate{"sale": {item("a", "1999.00", "2999.00")}}}
	_, err := newRunner(first, &fakeReviews{}, store, nil).Run(context.Background(), b)
	require.NoError(t, err)

	second := &fakeCrawler{byHandle: map[string][]models.Candidate{"sale": {item("a", "1499.00", "2999.00")}}}
	_, err = newRunner(second, &fakeReviews{}, store, nil).Run(context.Background(), b)
	require.NoError(t, err)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := store.Get(context.Background(), "https://shop.pk/products/a")
	require.NoError(t, err)
	assert.Equal(t, 1499.0, got.Price)
	assert.Equal(t, 50, got.DiscountPercent)
}

func TestRunIsolatesFailures(t *testing.T) {
	crawler := &fakeCrawler{
		byHandle: map[string][]models.Candidate{
			"ok": {item("a", "500", "1000"), item("broken-page", "500", "1000")},
		},
		fail: map[string]error{"gone": errors.New("listing 404")},
	}
	rev := &fakeReviews{failOn: map[string]bool{"https://shop.pk/products/broken-page": true}}
	store := newStore(t)
	pub := &recordingPublisher{err: errors.New("broker down")}

	stats, err := newRunner(crawler, rev, store, pub).Run(context.Background(), []models.Brand{
		brand("fake", "ok", "gone"),
		brand("magento", "x", "y"),
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, stats.Collections)
	assert.EqualValues(t, 3, stats.FailedCollections)
	assert.EqualValues(t, 1, stats.ReviewFailures)
	assert.EqualValues(t, 1, stats.Stored)
	assert.EqualValues(t, 1, stats.PublishFailures)
}

type failingStore struct {
	storage.Store
	err error
}

func (f failingStore) EnsureIndexes(context.Context) error { return nil }

func (f failingStore) Upsert(context.Context, *models.Product) error { return f.err }

func TestRunStopsOnStorageFailure(t *testing.T) {
	var many []models.Candidate
	for i := 0; i < 50; i++ {
		many = append(many, item(fmt.Sprintf("p%d", i), "500", "1000"))
	}
	crawler := &fakeCrawler{byHandle: map[string][]models.Candidate{"sale": many}}
	boom := errors.New("connection reset")

	stats, err := newRunner(crawler, &fakeReviews{}, failingStore{err: boom}, nil).
		Run(context.Background(), []models.Brand{brand("fake", "sale")})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, stats.Stored)
}

func TestRunFailsWhenIndexesCannotBeCreated(t *testing.T) {
	boom := errors.New("not authorized")
	_, err := newRunner(&fakeCrawler{}, &fakeReviews{}, indexFailStore{err: boom}, nil).
		Run(context.Background(), []models.Brand{brand("fake", "sale")})
	assert.ErrorIs(t, err, boom)
}

type indexFailStore struct {
	storage.Store
	err error
}

func (f indexFailStore) EnsureIndexes(context.Context) error { return f.err }

func TestRunHonoursCancellation(t *testing.T) {
	crawler := &fakeCrawler{byHandle: map[string][]models.Candidate{"sale": {item("a", "500", "1000")}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := newRunner(crawler, &fakeReviews{}, newStore(t), nil).
		Run(ctx, []models.Brand{brand("fake", "sale")})
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Zero(t, stats.FailedCollections)
}
