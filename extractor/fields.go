package extractor

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"catalog-scraper/models"
)

const (
	maxTitleRunes       = 140
	maxDescriptionRunes = 400
	minDescriptionRunes = 40
)

var (
	// priceTextRegexp matches a currency-prefixed digit run such as "KES 2,500,000" or "KS 900,000".
	// "Ksh" does not match: the h cannot be skipped.
	priceTextRegexp = regexp.MustCompile(`(?i)K(E)?S?\s*[0-9,]+`)
	// priceLineRegexp flags description candidates that are just a price.
	priceLineRegexp = regexp.MustCompile(`(?i)^(K(E)?S?\s*[0-9,]+)`)
	yearRegexp      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	whitespace      = regexp.MustCompile(`\s+`)

	engineRegexp       = regexp.MustCompile(`(?i)(\d{2,4})\s*CC`)
	transmissionRegexp = regexp.MustCompile(`(?i)\b(Automatic|Manual)\b`)
	conditionRegexp    = regexp.MustCompile(`(?i)\b(Brand New|Kenyan Used|Foreign Used)\b`)
	sellerRegexp       = regexp.MustCompile(`(?i)\b(Private Seller|In-house Stock)\b`)
)

const titleSelector = "h1, h2, h3, .title, .vehicle-title"

// Extras holds the optional attributes matched from a block's text.
type Extras struct {
	EngineCc     *int
	Transmission string
	Condition    string
	SellerType   string
}

// Title prefers a heading-like descendant and falls back to the first
// brand-bearing line of the block text.
func Title(block *goquery.Selection) string {
	if heading := strings.TrimSpace(block.Find(titleSelector).First().Text()); heading != "" {
		return heading
	}

	lines := contentLines(block.Text())
	line := ""
	for _, l := range lines {
		if MatchesBrand(l) {
			line = l
			break
		}
	}
	if line == "" && len(lines) > 0 {
		line = lines[0]
	}
	return truncateRunes(line, maxTitleRunes)
}

// PriceText returns the first currency-prefixed amount in text.
func PriceText(text string) string {
	return strings.TrimSpace(priceTextRegexp.FindString(text))
}

// Image returns the first usable URL of the block's first image, made absolute
// against pageURL. srcset wins over src, then data-src, then data-original.
func Image(block *goquery.Selection, pageURL *url.URL) string {
	img := block.Find("img").First()
	if img.Length() == 0 {
		return ""
	}

	var attrs []string
	if srcset := img.AttrOr("srcset", ""); srcset != "" {
		first := strings.TrimSpace(strings.Split(srcset, ",")[0])
		if fields := strings.Fields(first); len(fields) > 0 {
			attrs = append(attrs, fields[0])
		}
	}
	for _, name := range []string{"src", "data-src", "data-original"} {
		attrs = append(attrs, img.AttrOr(name, ""))
	}

	for _, raw := range attrs {
		if raw = strings.TrimSpace(raw); raw != "" {
			return resolveURL(raw, pageURL)
		}
	}
	return ""
}

func resolveURL(raw string, base *url.URL) string {
	ref, err := url.Parse(raw)
	if err != nil || base == nil || ref.IsAbs() {
		return raw
	}
	return base.ResolveReference(ref).String()
}

// Brand returns the first vocabulary brand in title with each word capitalised.
func Brand(title string) string {
	m := brandRegexp.FindString(title)
	if m == "" {
		return ""
	}
	return cases.Title(language.English, cases.NoLower).String(m)
}

// Year returns the first plausible four-digit model year in title.
func Year(title string) *int {
	m := yearRegexp.FindString(title)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

// Description picks a sentence-like line from the block text.
func Description(text string) string {
	var lines []string
	for _, l := range contentLines(text) {
		if !priceLineRegexp.MatchString(l) {
			lines = append(lines, l)
		}
	}

	desc := ""
	for _, l := range lines {
		if runeLen(l) > minDescriptionRunes {
			desc = l
			break
		}
	}
	if desc == "" {
		switch {
		case len(lines) > 1:
			desc = lines[1]
		case len(lines) == 1:
			desc = lines[0]
		}
	}
	return truncateRunes(desc, maxDescriptionRunes)
}

// BodyType classifies text against the ordered body type vocabulary.
func BodyType(text string) string {
	for _, bt := range BodyTypes {
		if bt.Pattern.MatchString(text) {
			return bt.Label
		}
	}
	return ""
}

// ExtractExtras matches each optional attribute independently; a miss leaves
// the zero value.
func ExtractExtras(text string) Extras {
	t := whitespace.ReplaceAllString(text, " ")

	var ex Extras
	if m := engineRegexp.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n != 0 {
			ex.EngineCc = &n
		}
	}
	if m := transmissionRegexp.FindStringSubmatch(t); m != nil {
		ex.Transmission = m[1]
	}
	if m := conditionRegexp.FindStringSubmatch(t); m != nil {
		ex.Condition = m[1]
	}
	if m := sellerRegexp.FindStringSubmatch(t); m != nil {
		ex.SellerType = m[1]
	}
	return ex
}

// Tag classifies availability from the block text.
func Tag(text string) string {
	if strings.Contains(strings.ToLower(text), "direct import") {
		return models.TagDirectImport
	}
	return models.TagAvailableInKenya
}

// CollapseWhitespace trims s and folds internal whitespace runs to one space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// contentLines splits text into trimmed, non-empty, non-boilerplate lines.
func contentLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" || IsBoilerplate(l) {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func runeLen(s string) int {
	return len([]rune(s))
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}
