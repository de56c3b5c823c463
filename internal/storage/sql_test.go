package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/pkdeals/internal/models"
)

func newSQLite(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(ctx) })
	require.NoError(t, s.EnsureIndexes(ctx))
	return s
}

func strp(s string) *string { return &s }

func sampleProduct(url string, price float64) *models.Product {
	rating := 4.5
	return &models.Product{
		Title:           "Embroidered Lawn Kurta",
		Brand:           "Limelight",
		Price:           price,
		OriginalPrice:   4000,
		DiscountPercent: 50,
		Gender:          strp("women"),
		Category:        strp("kurta"),
		URL:             url,
		ImageURL:        strp("https://cdn.example/k.jpg"),
		Source:          "limelight.pk",
		Currency:        "PKR",
		Tags:            []string{"eid", "lawn"},
		Variants: []models.Variant{
			{Size: strp("M"), InStock: true, VariantID: 11, InventoryQuantity: 2},
		},
		Rating:      &rating,
		ReviewCount: 3,
		Reviews:     []models.Review{{Author: "Ayesha", Rating: 5, Text: "Great"}},
		ScrapedAt:   time.Date(2025, 1, 2, 3, 4, 5, 6000, time.UTC),
	}
}

func TestSQLStoreUpsertAndGet(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	p := sampleProduct("https://limelight.pk/products/kurta", 2000)
	require.NoError(t, s.Upsert(ctx, p))
	require.NotEmpty(t, p.ID)

	got, err := s.Get(ctx, p.URL)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestSQLStoreUpsertReplacesByURL(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	url := "https://limelight.pk/products/kurta"

	first := sampleProduct(url, 2000)
	require.NoError(t, s.Upsert(ctx, first))

	second := sampleProduct(url, 1800)
	second.Gender = nil
	second.Rating = nil
	second.Reviews = nil
	require.NoError(t, s.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID, "identity survives replacement")

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := s.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, 1800.0, got.Price)
	assert.Nil(t, got.Gender)
	assert.Nil(t, got.Rating)
	assert.Nil(t, got.Reviews)
}

func TestSQLStoreGetMissing(t *testing.T) {
	s := newSQLite(t)
	_, err := s.Get(context.Background(), "https://nowhere.pk/products/x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStoreEnsureIndexesIsIdempotent(t *testing.T) {
	s := newSQLite(t)
	require.NoError(t, s.EnsureIndexes(context.Background()))
}

func TestDialectBind(t *testing.T) {
	assert.Equal(t, "a = ? AND b = ?", sqliteDialect.bind("a = ? AND b = ?"))
	assert.Equal(t, "a = $1 AND b = $2", postgresDialect.bind("a = ? AND b = ?"))
}
