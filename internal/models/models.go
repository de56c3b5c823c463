package models

import "time"

// Collection is one storefront collection declared in the brands catalog.
// Either Handle or URL must resolve to a collection handle.
type Collection struct {
	Handle   string `mapstructure:"handle" json:"handle,omitempty"`
	URL      string `mapstructure:"url" json:"url,omitempty"`
	Gender   string `mapstructure:"gender" json:"gender,omitempty"`
	Category string `mapstructure:"type" json:"type,omitempty"`
}

// Brand groups the collections crawled for one storefront.
type Brand struct {
	Key         string       `mapstructure:"key" json:"key"`
	Platform    string       `mapstructure:"platform" json:"platform"`
	Domain      string       `mapstructure:"domain" json:"domain"`
	Name        string       `mapstructure:"brand" json:"brand"`
	Collections []Collection `mapstructure:"collections" json:"collections"`
}

// RawVariant is a variant as served by the storefront listing API.
// Prices arrive as decimal strings ("1999.00") or null; numeric prices are
// converted to text while decoding the listing.
type RawVariant struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	Option1           *string `json:"option1"`
	Available         bool    `json:"available"`
	Price             *string `json:"price"`
	CompareAtPrice    *string `json:"compare_at_price"`
	SKU               *string `json:"sku"`
	InventoryQuantity int     `json:"inventory_quantity"`
}

type Variant struct {
	Size              *string  `json:"size" bson:"size"`
	InStock           bool     `json:"in_stock" bson:"in_stock"`
	Price             *float64 `json:"price" bson:"price"`
	OriginalPrice     *float64 `json:"original_price" bson:"original_price"`
	SKU               *string  `json:"sku" bson:"sku"`
	InventoryQuantity int      `json:"inventory_quantity" bson:"inventory_quantity"`
	VariantID         int64    `json:"variant_id" bson:"variant_id"`
}

type Review struct {
	Author string  `json:"author" bson:"author"`
	Rating float64 `json:"rating" bson:"rating"`
	Text   string  `json:"text" bson:"text"`
	Date   *string `json:"date" bson:"date"`
}

// Candidate is a discounted listing on its way through the pipeline.
// Prices are kept as scraped text until normalization.
type Candidate struct {
	Title           string
	Brand           string
	Price           string
	OriginalPrice   string
	DiscountPercent *int
	Gender          string
	Category        string
	URL             string
	ImageURL        string
	Source          string
	Currency        string
	Tags            []string
	Variants        []Variant
	Rating          *float64
	ReviewCount     int
	Reviews         []Review
}

// Product is a normalized, validated listing as persisted in the catalog.
type Product struct {
	ID              string    `json:"id,omitempty" bson:"-"`
	Title           string    `json:"title" bson:"title"`
	Brand           string    `json:"brand" bson:"brand"`
	Price           float64   `json:"price" bson:"price"`
	OriginalPrice   float64   `json:"original_price" bson:"original_price"`
	DiscountPercent int       `json:"discount_percent" bson:"discount_percent"`
	Gender          *string   `json:"gender" bson:"gender"`
	Category        *string   `json:"category" bson:"category"`
	URL             string    `json:"url" bson:"url"`
	ImageURL        *string   `json:"image_url" bson:"image_url"`
	Source          string    `json:"source" bson:"source"`
	Currency        string    `json:"currency" bson:"currency"`
	Tags            []string  `json:"tags" bson:"tags"`
	Variants        []Variant `json:"variants" bson:"variants"`
	Rating          *float64  `json:"rating" bson:"rating"`
	ReviewCount     int       `json:"review_count" bson:"review_count"`
	Reviews         []Review  `json:"reviews" bson:"reviews"`
	ScrapedAt       time.Time `json:"scraped_at" bson:"scraped_at"`
}
