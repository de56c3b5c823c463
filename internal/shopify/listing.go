package shopify

import (
	"encoding/json"
	"strings"

	"github.com/lukman83/pkdeals/internal/models"
)

// listingResponse is the body of /collections/{handle}/products.json.
type listingResponse struct {
	Products []listingProduct `json:"products"`
}

type listingProduct struct {
	Title    string           `json:"title"`
	Handle   string           `json:"handle"`
	Images   []listingImage   `json:"images"`
	Tags     tagList          `json:"tags"`
	Variants []listingVariant `json:"variants"`
}

// listingVariant overrides the price fields of RawVariant so that numeric
// prices decode as well as string ones.
type listingVariant struct {
	models.RawVariant
	Price          priceText `json:"price"`
	CompareAtPrice priceText `json:"compare_at_price"`
}

// priceText keeps a price as text whether it was served as a JSON string or
// number. Any other non-null value is kept verbatim and fails to parse later,
// which drops only that variant's prices.
type priceText struct {
	s *string
}

func (p *priceText) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		p.s = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.s = &s
		return nil
	}
	p.s = &raw
	return nil
}

func (p listingProduct) rawVariants() []models.RawVariant {
	out := make([]models.RawVariant, len(p.Variants))
	for i, v := range p.Variants {
		rv := v.RawVariant
		rv.Price = v.Price.s
		rv.CompareAtPrice = v.CompareAtPrice.s
		out[i] = rv
	}
	return out
}

// listingImage accepts both {"src": "..."} objects and bare URL strings.
type listingImage struct {
	Src string
}

func (i *listingImage) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		i.Src = s
		return nil
	}
	var obj struct {
		Src string `json:"src"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	i.Src = obj.Src
	return nil
}

// tagList accepts a JSON array or the comma-separated string some
// storefront endpoints return.
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = nil
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*t = append(*t, part)
		}
	}
	return nil
}

func (p listingProduct) imageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].Src
}
