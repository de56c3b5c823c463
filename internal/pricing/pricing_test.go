package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"Rs. 2,999", 2999, true},
		{"PKR1,050.50", 1050.5, true},
		{"1999.00", 1999, true},
		{"Rs 500", 500, true},
		{"  3,499 PKR ", 3499, true},
		{"", 0, false},
		{"free", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePrice(tt.in)
			require.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDiscountPercent(t *testing.T) {
	pct, ok := DiscountPercent(1999, 2999)
	require.True(t, ok)
	assert.Equal(t, 33, pct)

	pct, ok = DiscountPercent(1000, 1030)
	require.True(t, ok)
	assert.Equal(t, 3, pct)

	// 87.5 rounds half away from zero.
	pct, ok = DiscountPercent(125, 1000)
	require.True(t, ok)
	assert.Equal(t, 88, pct)

	_, ok = DiscountPercent(1000, 1000)
	assert.False(t, ok)
	_, ok = DiscountPercent(0, 1000)
	assert.False(t, ok)
}
