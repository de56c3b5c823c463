package pipeline

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/pkdeals/internal/models"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("PKT", 5*3600))

func intp(i int) *int { return &i }

func candidate(price, original string) models.Candidate {
	return models.Candidate{
		Title:         "Lawn Suit",
		Brand:         "Khaadi",
		Price:         price,
		OriginalPrice: original,
		URL:           "https://pk.khaadi.com/products/lawn-suit",
		Currency:      "PKR",
		Category:      "suit",
	}
}

func TestNormalizeParsesPrices(t *testing.T) {
	p, err := Normalize(candidate("Rs. 2,999", "PKR4,050.50"), fixedNow)
	require.NoError(t, err)

	assert.Equal(t, 2999.0, p.Price)
	assert.Equal(t, 4050.5, p.OriginalPrice)
	assert.Equal(t, 26, p.DiscountPercent)
	assert.Equal(t, "pk.khaadi.com", p.Source, "source falls back to the url host")
	assert.Equal(t, time.UTC, p.ScrapedAt.Location())
	assert.True(t, fixedNow.Equal(p.ScrapedAt))
	require.NotNil(t, p.Category)
	assert.Equal(t, "suit", *p.Category)
	assert.Nil(t, p.Gender)
	assert.Nil(t, p.ImageURL)
}

func TestNormalizeKeepsDeclaredDiscount(t *testing.T) {
	c := candidate("1999.00", "2999.00")
	c.DiscountPercent = intp(33)
	c.Source = "khaadi"

	p, err := Normalize(c, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 33, p.DiscountPercent)
	assert.Equal(t, "khaadi", p.Source)
}

func TestNormalizeRejects(t *testing.T) {
	noURL := candidate("500", "1000")
	noURL.URL = ""

	lowDeclared := candidate("500", "1000")
	lowDeclared.DiscountPercent = intp(4)

	tests := []struct {
		name string
		c    models.Candidate
	}{
		{"below five percent", candidate("1000", "1030")},
		{"equal prices", candidate("1000", "1000")},
		{"original below price", candidate("1200", "1000")},
		{"unparseable price", candidate("call us", "1000")},
		{"missing original", candidate("1000", "")},
		{"declared discount below floor", lowDeclared},
		{"missing url", noURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Normalize(tt.c, fixedNow)
			assert.Nil(t, p)
			var rej *RejectError
			require.True(t, errors.As(err, &rej), "got %v", err)
			assert.NotEmpty(t, rej.Reason)
		})
	}
}

func TestNormalizeNeverPassesInvariantViolations(t *testing.T) {
	for price := 1; price <= 1100; price += 7 {
		c := candidate(fmt.Sprint(price), "1000")
		p, err := Normalize(c, fixedNow)
		if err != nil {
			continue
		}
		assert.Greater(t, p.OriginalPrice, p.Price)
		assert.GreaterOrEqual(t, p.DiscountPercent, 5)
	}
}

func TestNormalizeCapsReviews(t *testing.T) {
	c := candidate("500", "1000")
	for i := 0; i < 12; i++ {
		c.Reviews = append(c.Reviews, models.Review{Author: fmt.Sprint(i), Rating: 5})
	}
	p, err := Normalize(c, fixedNow)
	require.NoError(t, err)
	assert.Len(t, p.Reviews, 10)
}
