package cmd

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/lukman83/pkdeals/internal/models"
	"github.com/lukman83/pkdeals/internal/pipeline"
)

type crawlOutput struct {
	Stats    pipeline.Stats   `json:"stats"`
	Products []models.Product `json:"products"`
}

// printProductsTable prints stored products in a card layout.
func printProductsTable(products []models.Product) {
	for i, p := range products {
		if i > 0 {
			fmt.Fprintln(os.Stdout)
		}
		fmt.Fprintf(os.Stdout, " %d. %s\n", i+1, truncate(p.Title, 72))

		priceLine := fmt.Sprintf("    Price: %s  (was %s, -%d%%)  |  Brand: %s",
			formatPrice(p.Price), formatPrice(p.OriginalPrice), p.DiscountPercent, p.Brand)
		fmt.Fprintln(os.Stdout, priceLine)

		var facets []string
		if p.Gender != nil {
			facets = append(facets, "["+*p.Gender+"]")
		}
		if p.Category != nil {
			facets = append(facets, "["+*p.Category+"]")
		}
		if p.Rating != nil {
			facets = append(facets, fmt.Sprintf("[%.1f★ %d reviews]", *p.Rating, p.ReviewCount))
		}
		if len(facets) > 0 {
			fmt.Fprintf(os.Stdout, "    %s\n", strings.Join(facets, " "))
		}
		fmt.Fprintf(os.Stdout, "    %s\n", p.URL)
	}
}

// printCategoryBreakdown summarizes stored products per category, largest first.
func printCategoryBreakdown(products []models.Product) {
	counts := make(map[string]int)
	for _, p := range products {
		name := "uncategorized"
		if p.Category != nil {
			name = *p.Category
		}
		counts[name]++
	}

	type row struct {
		name  string
		count int
	}
	rows := make([]row, 0, len(counts))
	for name, n := range counts {
		rows = append(rows, row{name, n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].name < rows[j].name
	})

	fmt.Fprintf(os.Stdout, "%-20s %s\n", "CATEGORY", "PRODUCTS")
	for _, r := range rows {
		fmt.Fprintf(os.Stdout, "%-20s %d\n", truncate(r.name, 20), r.count)
	}
}

func printStats(s pipeline.Stats) {
	fmt.Fprintf(os.Stderr, "\nrun %s: %d collections (%d failed), %d candidates, %d rejected, %d stored",
		s.RunID, s.Collections, s.FailedCollections, s.Candidates, s.Rejected, s.Stored)
	if s.ReviewFailures > 0 {
		fmt.Fprintf(os.Stderr, ", %d review failures", s.ReviewFailures)
	}
	if s.Published > 0 || s.PublishFailures > 0 {
		fmt.Fprintf(os.Stderr, ", %d published (%d failed)", s.Published, s.PublishFailures)
	}
	fmt.Fprintln(os.Stderr)
}

// formatPrice formats a rupee amount as "Rs. 12,345" (paisa shown only when present).
func formatPrice(v float64) string {
	whole := int64(math.Floor(v))
	paisa := int64(math.Round((v - float64(whole)) * 100))
	if paisa == 100 {
		whole++
		paisa = 0
	}

	s := fmt.Sprintf("%d", whole)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := "Rs. " + strings.Join(parts, ",")
	if paisa > 0 {
		out += fmt.Sprintf(".%02d", paisa)
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
