package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	cases := map[float64]string{
		0:        "Rs. 0",
		999:      "Rs. 999",
		2999:     "Rs. 2,999",
		4050.5:   "Rs. 4,050.50",
		1234567:  "Rs. 1,234,567",
		1999.999: "Rs. 2,000",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatPrice(in), "formatPrice(%v)", in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Lawn", truncate("Lawn", 10))
	assert.Equal(t, "Embroid...", truncate("Embroidered Kurta", 10))
	assert.Equal(t, "Em", truncate("Embroidered", 2))
}
