package reviews

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	firstInt     = regexp.MustCompile(`\d+`)
	firstDecimal = regexp.MustCompile(`[\d.]+`)
)

// Convention is one review-widget markup layout. Summary reports ok=false
// when the widget's rating marker is absent or malformed, letting the
// next convention try.
type Convention interface {
	Name() string
	Summary(doc *goquery.Document) (rating float64, count int, ok bool)
}

// Conventions is the fixed priority order in which widgets are tried.
var Conventions = []Convention{
	judgeMe{},
	yotpo{},
	stamped{},
	loox{},
	productReviews{},
}

type judgeMe struct{}

func (judgeMe) Name() string { return "judgeme" }

func (judgeMe) Summary(doc *goquery.Document) (float64, int, bool) {
	score, exists := doc.Find(".jdgm-prev-badge__stars").First().Attr("data-score")
	if !exists {
		return 0, 0, false
	}
	rating, ok := parseRating(score)
	if !ok {
		return 0, 0, false
	}
	count, ok := parseCount(firstInt.FindString(doc.Find(".jdgm-prev-badge__text").First().Text()))
	if !ok {
		return 0, 0, false
	}
	return rating, count, true
}

type yotpo struct{}

func (yotpo) Name() string { return "yotpo" }

// Yotpo renders the average and the "N Reviews" caption as sibling .text-m
// nodes; the count is taken from the nodes after the average.
func (yotpo) Summary(doc *goquery.Document) (float64, int, bool) {
	nodes := doc.Find(".yotpo-bottomline .text-m")
	if nodes.Length() == 0 {
		return 0, 0, false
	}
	rating, ok := parseRating(nodes.First().Text())
	if !ok {
		return 0, 0, false
	}
	count := 0
	nodes.Slice(1, goquery.ToEnd).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := firstInt.FindString(s.Text()); m != "" {
			count, ok = parseCount(m)
			return false
		}
		return true
	})
	if !ok {
		return 0, 0, false
	}
	return rating, count, true
}

type stamped struct{}

func (stamped) Name() string { return "stamped" }

func (stamped) Summary(doc *goquery.Document) (float64, int, bool) {
	return attrSummary(doc.Find(".stamped-product-reviews-badge").First())
}

type loox struct{}

func (loox) Name() string { return "loox" }

func (loox) Summary(doc *goquery.Document) (float64, int, bool) {
	return attrSummary(doc.Find(".loox-rating").First())
}

// productReviews is Shopify's built-in Product Reviews badge.
type productReviews struct{}

func (productReviews) Name() string { return "spr" }

func (productReviews) Summary(doc *goquery.Document) (float64, int, bool) {
	label, exists := doc.Find(".spr-badge-starrating").First().Attr("aria-label")
	if !exists {
		return 0, 0, false
	}
	rating, ok := parseRating(firstDecimal.FindString(label))
	if !ok {
		return 0, 0, false
	}
	count, ok := parseCount(firstInt.FindString(doc.Find(".spr-badge-caption").First().Text()))
	if !ok {
		return 0, 0, false
	}
	return rating, count, true
}

func attrSummary(badge *goquery.Selection) (float64, int, bool) {
	raw, exists := badge.Attr("data-rating")
	if !exists {
		return 0, 0, false
	}
	rating, ok := parseRating(raw)
	if !ok {
		return 0, 0, false
	}
	c, _ := badge.Attr("data-count")
	count, ok := parseCount(c)
	if !ok {
		return 0, 0, false
	}
	return rating, count, true
}

// parseRating rejects empty, malformed and zero ratings. Widgets render a
// zero score before any review exists, which says nothing about the product.
func parseRating(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

// parseCount treats a missing count as zero and a malformed one as failure.
func parseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
