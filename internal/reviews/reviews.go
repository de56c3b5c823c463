// Package reviews extracts rating summaries and individual reviews from
// storefront product pages.
package reviews

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/lukman83/pkdeals/internal/models"
)

// MaxReviews caps the reviews kept per product.
const MaxReviews = 10

// Result is what a product page says about its reviews. A page without a
// known widget yields the zero Result.
type Result struct {
	Rating      *float64        `json:"rating"`
	ReviewCount int             `json:"review_count"`
	Reviews     []models.Review `json:"reviews"`
	// Widget names the convention that matched, empty when none did.
	Widget string `json:"widget,omitempty"`
}

// Apply copies the result onto a candidate.
func (r Result) Apply(c *models.Candidate) {
	c.Rating = r.Rating
	c.ReviewCount = r.ReviewCount
	c.Reviews = r.Reviews
}

// Extract parses a product page. Only unparseable HTML is an error.
func Extract(body []byte) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("parse product page: %w", err)
	}
	return ExtractDocument(doc), nil
}

// ExtractDocument runs the conventions in priority order; the first whose
// rating marker is present and well formed wins.
func ExtractDocument(doc *goquery.Document) Result {
	var res Result
	for _, c := range Conventions {
		rating, count, ok := c.Summary(doc)
		if !ok {
			continue
		}
		res.Rating = &rating
		res.ReviewCount = count
		res.Widget = c.Name()
		break
	}
	res.Reviews = judgeMeReviews(doc)
	return res
}

// judgeMeReviews reads the Judge.me review list in document order. Entries
// without an author or a numeric rating are skipped.
func judgeMeReviews(doc *goquery.Document) []models.Review {
	var out []models.Review
	doc.Find(".jdgm-rev").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		author := strings.TrimSpace(s.Find(".jdgm-rev__author").First().Text())
		score, _ := s.Find(".jdgm-rev__rating").First().Attr("data-score")
		rating, err := strconv.ParseFloat(strings.TrimSpace(score), 64)
		if author == "" || err != nil {
			return true
		}

		rev := models.Review{
			Author: author,
			Rating: rating,
			Text:   reviewBody(s.Find(".jdgm-rev__body").First()),
		}
		if date, ok := s.Find(".jdgm-rev__timestamp").First().Attr("data-content"); ok && date != "" {
			rev.Date = &date
		}
		out = append(out, rev)
		return len(out) < MaxReviews
	})
	return out
}

// reviewBody reads the body's own text, or its paragraph children when the
// text is wrapped in <p>. Nested controls such as "Read more" links or
// helpfulness votes are left out.
func reviewBody(body *goquery.Selection) string {
	if text := ownText(body); text != "" {
		return text
	}
	var parts []string
	body.ChildrenFiltered("p").Each(func(_ int, p *goquery.Selection) {
		if t := ownText(p); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n")
}

func ownText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		for _, n := range c.Nodes {
			if n.Type == html.TextNode {
				b.WriteString(n.Data)
			}
		}
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
