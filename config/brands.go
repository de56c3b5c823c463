package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/lukman83/pkdeals/internal/models"
)

// ErrBrandNotFound is returned for brand keys missing from the catalog.
var ErrBrandNotFound = errors.New("brand not found")

// Catalog is the declarative list of storefronts to crawl.
type Catalog struct {
	Brands []models.Brand `mapstructure:"brands"`
}

// LoadCatalog reads a brands file (YAML, JSON or TOML by extension).
// Unknown keys are an error so that typos in hints do not pass silently.
func LoadCatalog(path string) (*Catalog, error) {
	const op = "config.LoadCatalog"

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cat Catalog
	if err := v.UnmarshalExact(&cat); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range cat.Brands {
		b := &cat.Brands[i]
		b.Domain = strings.TrimRight(strings.TrimSpace(b.Domain), "/")
		b.Platform = strings.ToLower(strings.TrimSpace(b.Platform))
		if b.Key == "" {
			return nil, fmt.Errorf("%s: brand #%d has no key", op, i+1)
		}
		if b.Domain == "" {
			return nil, fmt.Errorf("%s: brand %q has no domain", op, b.Key)
		}
		if b.Name == "" {
			b.Name = b.Key
		}
	}
	return &cat, nil
}

// Select returns the brands with the given keys, in the order asked.
// No keys selects every brand.
func (c *Catalog) Select(keys ...string) ([]models.Brand, error) {
	if len(keys) == 0 {
		return c.Brands, nil
	}
	out := make([]models.Brand, 0, len(keys))
	for _, k := range keys {
		b, ok := c.Brand(k)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrBrandNotFound, k)
		}
		out = append(out, b)
	}
	return out, nil
}

// Brand looks a brand up by key, ignoring case.
func (c *Catalog) Brand(key string) (models.Brand, bool) {
	for _, b := range c.Brands {
		if strings.EqualFold(b.Key, key) {
			return b, true
		}
	}
	return models.Brand{}, false
}
