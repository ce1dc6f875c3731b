package services

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const currencyPrefix = "KES "

// MinPrice is the lowest numeric price a scraped listing may carry. Lower
// values are placeholder or garbage matches.
const MinPrice = 100_000

var pricePrinter = message.NewPrinter(language.English)

// NormalizePrice turns free-text price into "KES 2,500,000". It reports
// false when the text holds no digits (or more than fit an int64), in which
// case callers keep the original text.
func NormalizePrice(text string) (string, bool) {
	n, ok := NumericPrice(text)
	if !ok {
		return "", false
	}
	return currencyPrefix + pricePrinter.Sprintf("%d", n), true
}

// NumericPrice keeps only the digits of text and parses them. false stands in
// for "not a number"; it is used for threshold filtering, never for display.
func NumericPrice(text string) (int64, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
