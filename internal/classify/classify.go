// Package classify infers gender and product category tags from free text
// (titles, tags, handles) using ordered keyword tables.
package classify

import (
	"regexp"
	"strings"
)

type rule struct {
	label    string
	keywords []string
}

// Order matters: the first matching rule wins.
var genderRules = []rule{
	{"men", []string{"men", "male", "gents", "boys", "gentlemen", "gentleman", "sportsmen"}},
	{"women", []string{"women", "female", "ladies", "girls", "woman", "lady", "sportswomen"}},
}

var categoryRules = []rule{
	{"sweater", []string{"sweater", "sweat", "cardigan", "pullover"}},
	{"hoodie", []string{"hoodie", "hooded"}},
	{"jacket", []string{"jacket", "puffer", "bomber", "coat"}},
	{"t-shirt", []string{"t-shirt", "tee", "tshirt"}},
	{"shirt", []string{"shirt", "button down"}},
	{"kurta", []string{"kurta", "kurti", "kameez"}},
	{"shalwar", []string{"shalwar", "trouser", "pants"}},
	{"jeans", []string{"jeans", "denim"}},
	{"sweatshirt", []string{"sweatshirt"}},
	{"tracksuit", []string{"tracksuit", "track suit"}},
	{"dress", []string{"dress", "maxi", "frock"}},
	{"suit", []string{"suit", "2 piece", "3 piece", "unstitched", "stitched"}},
}

// fallbackRules run only when no category rule matched.
var fallbackRules = []rule{
	{"shirt", []string{"shirt"}},
	{"suit", []string{"suit"}},
	{"dress", []string{"dress"}},
	{"kurta", []string{"kurta"}},
	{"pants", []string{"pant", "trouser"}},
	{"dress", []string{"maxi"}},
	{"dress", []string{"frock"}},
}

// Normalize joins the non-empty texts, collapses whitespace and lower-cases.
func Normalize(texts ...string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.ToLower(strings.Join(strings.Fields(strings.Join(parts, " ")), " "))
}

// genderPatterns anchor each keyword at a word start so that "women"
// never matches "men" and "female" never matches "male". Compounds ending
// in "men" are listed as keywords of their own.
var genderPatterns = compileWordStart(genderRules)

// DetectGender returns "men", "women" or "" when nothing matches.
func DetectGender(texts ...string) string {
	blob := Normalize(texts...)
	if blob == "" {
		return ""
	}
	for i, re := range genderPatterns {
		if re.MatchString(blob) {
			return genderRules[i].label
		}
	}
	return ""
}

// DetectCategory returns the canonical category or "" when nothing matches.
func DetectCategory(texts ...string) string {
	blob := Normalize(texts...)
	if c := firstMatch(blob, categoryRules); c != "" {
		return c
	}
	return firstMatch(blob, fallbackRules)
}

func compileWordStart(rules []rule) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(rules))
	for i, r := range rules {
		quoted := make([]string, len(r.keywords))
		for j, k := range r.keywords {
			quoted[j] = regexp.QuoteMeta(k)
		}
		out[i] = regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)`)
	}
	return out
}

func firstMatch(blob string, rules []rule) string {
	if blob == "" {
		return ""
	}
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(blob, k) {
				return r.label
			}
		}
	}
	return ""
}
