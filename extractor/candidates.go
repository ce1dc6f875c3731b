package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxCandidates bounds how many blocks one page may yield.
const MaxCandidates = 800

const candidateSelector = "a, article, div"

// Candidate is one element suspected of holding a single listing, together
// with its flattened text.
type Candidate struct {
	Selection *goquery.Selection
	Text      string
}

// Selector picks candidate listing blocks out of a rendered page.
type Selector struct {
	// Limit caps the number of candidates; zero or negative means MaxCandidates.
	Limit int
}

// Select walks anchors, articles and divs in document order and keeps those
// whose text mentions availability or condition, a currency token and a brand.
func (s Selector) Select(doc *goquery.Document) []Candidate {
	limit := s.Limit
	if limit <= 0 {
		limit = MaxCandidates
	}

	var out []Candidate
	doc.Find(candidateSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if IsCandidateText(text) {
			out = append(out, Candidate{Selection: sel, Text: text})
		}
		return len(out) < limit
	})
	return out
}

// IsCandidateText applies the keyword, currency and brand co-occurrence filter.
func IsCandidateText(text string) bool {
	lower := strings.ToLower(text)
	return containsAny(lower, availabilityKeywords) &&
		containsAny(lower, currencyTokens) &&
		MatchesBrand(lower)
}
