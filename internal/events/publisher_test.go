package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/lukman83/pkdeals/internal/models"
)

type fakeClient struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (c *fakeClient) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	c.records = append(c.records, rs...)
	out := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		out = append(out, kgo.ProduceResult{Record: r, Err: c.err})
	}
	return out
}

func (c *fakeClient) Close() { c.closed = true }

func TestPublishUpserted(t *testing.T) {
	cl := &fakeClient{}
	p := NewPublisherWithClient(cl)

	category := "kurta"
	rating := 4.5
	scraped := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	product := &models.Product{
		URL:             "https://limelight.pk/products/kurta",
		Title:           "Lawn Kurta",
		Brand:           "Limelight",
		Category:        &category,
		Source:          "limelight.pk",
		Currency:        "PKR",
		Price:           2000,
		OriginalPrice:   4000,
		DiscountPercent: 50,
		Rating:          &rating,
		ReviewCount:     3,
		ScrapedAt:       scraped,
	}
	require.NoError(t, p.PublishUpserted(context.Background(), product))
	require.Len(t, cl.records, 1)
	assert.Equal(t, product.URL, string(cl.records[0].Key))

	var got ProductUpsertedV1
	require.NoError(t, avro.Unmarshal(ProductUpsertedAvro(), cl.records[0].Value, &got))
	assert.Equal(t, product.URL, got.URL)
	assert.Equal(t, 50, got.DiscountPercent)
	require.NotNil(t, got.Category)
	assert.Equal(t, "kurta", *got.Category)
	assert.Nil(t, got.Gender)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4.5, *got.Rating)
	assert.True(t, scraped.Equal(got.ScrapedAt))

	p.Close()
	assert.True(t, cl.closed)
}

func TestPublishUpsertedReportsProduceError(t *testing.T) {
	cl := &fakeClient{err: errors.New("broker down")}
	p := NewPublisherWithClient(cl)

	err := p.PublishUpserted(context.Background(), &models.Product{URL: "https://x.pk/products/y"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "broker down")
}

func TestPublishUpsertedHonoursCancellation(t *testing.T) {
	cl := &fakeClient{}
	p := NewPublisherWithClient(cl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.PublishUpserted(ctx, &models.Product{URL: "https://x.pk/products/y"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, cl.records)
}
