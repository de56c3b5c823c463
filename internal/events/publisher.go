// Package events publishes catalog change events to Kafka.
package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/lukman83/pkdeals/internal/models"
)

// ProducerClient is the subset of *kgo.Client the publisher needs.
type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Publisher encodes stored products as avro records keyed by URL.
type Publisher struct {
	cl     ProducerClient
	schema avro.Schema
}

// NewPublisher connects to the seed brokers and pings them.
func NewPublisher(ctx context.Context, seedBrokers []string, topic string) (*Publisher, error) {
	const op = "events.NewPublisher"

	cl, err := kgo.NewClient(
		kgo.SeedBrokers(seedBrokers...),
		kgo.DefaultProduceTopicAlways(),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewPublisherWithClient(cl), nil
}

func NewPublisherWithClient(cl ProducerClient) *Publisher {
	return &Publisher{cl: cl, schema: ProductUpsertedAvro()}
}

// PublishUpserted produces one product_upserted record and waits for the ack.
func (p *Publisher) PublishUpserted(ctx context.Context, product *models.Product) error {
	const op = "events.PublishUpserted"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	v, err := avro.Marshal(p.schema, toSchema(product))
	if err != nil {
		return fmt.Errorf("%s: encode: %w", op, err)
	}

	res := p.cl.ProduceSync(ctx, &kgo.Record{Key: []byte(product.URL), Value: v})
	if err := res.FirstErr(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p *Publisher) Close() {
	const op = "events.Publisher.Close"
	log := slog.With("op", op)
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func toSchema(p *models.Product) ProductUpsertedV1 {
	return ProductUpsertedV1{
		URL:             p.URL,
		Title:           p.Title,
		Brand:           p.Brand,
		Category:        p.Category,
		Gender:          p.Gender,
		Source:          p.Source,
		Currency:        p.Currency,
		Price:           p.Price,
		OriginalPrice:   p.OriginalPrice,
		DiscountPercent: p.DiscountPercent,
		Rating:          p.Rating,
		ReviewCount:     p.ReviewCount,
		ScrapedAt:       p.ScrapedAt,
	}
}
