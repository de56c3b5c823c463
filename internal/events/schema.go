package events

import (
	"time"

	"github.com/hamba/avro/v2"
)

const ProductUpsertedSchemaText = `{
	"type": "record",
	"namespace": "pkdeals.products",
	"name": "product_upserted",
	"fields": [
		{"name": "url", "type": "string"},
		{"name": "title", "type": "string"},
		{"name": "brand", "type": "string"},
		{"name": "category", "type": ["null", "string"], "default": null},
		{"name": "gender", "type": ["null", "string"], "default": null},
		{"name": "source", "type": "string"},
		{"name": "currency", "type": "string"},
		{"name": "price", "type": "double"},
		{"name": "original_price", "type": "double"},
		{"name": "discount_percent", "type": "int"},
		{"name": "rating", "type": ["null", "double"], "default": null},
		{"name": "review_count", "type": "int"},
		{"name": "scraped_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

// ProductUpsertedV1 is the event emitted after a product is stored.
type ProductUpsertedV1 struct {
	URL             string    `avro:"url"`
	Title           string    `avro:"title"`
	Brand           string    `avro:"brand"`
	Category        *string   `avro:"category"`
	Gender          *string   `avro:"gender"`
	Source          string    `avro:"source"`
	Currency        string    `avro:"currency"`
	Price           float64   `avro:"price"`
	OriginalPrice   float64   `avro:"original_price"`
	DiscountPercent int       `avro:"discount_percent"`
	Rating          *float64  `avro:"rating"`
	ReviewCount     int       `avro:"review_count"`
	ScrapedAt       time.Time `avro:"scraped_at"`
}

// ProductUpsertedAvro panics if the schema text is invalid.
func ProductUpsertedAvro() avro.Schema {
	return avro.MustParse(ProductUpsertedSchemaText)
}
