package services

import (
	"regexp"
	"strings"

	"catalog-scraper/extractor"
	"catalog-scraper/models"
	"catalog-scraper/utils"
)

var slugSeparator = regexp.MustCompile(`[^a-z0-9]+`)

// Cleaner transforms RawListings into catalog Listings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean filters and normalizes one page worth of raw listings. seen carries
// the ids already emitted earlier in the same run: the first listing to
// claim an id keeps it and later ones are dropped.
func (c *Cleaner) Clean(raw []*models.RawListing, seen *utils.IDSet) []*models.Listing {
	result := make([]*models.Listing, 0, len(raw))

	for _, r := range raw {
		title := extractor.CollapseWhitespace(r.Title)
		if strings.HasPrefix(strings.ToLower(title), "show results of") {
			c.logger.Debug("[cleaner] Dropping results banner: %s", title)
			continue
		}

		if n, ok := NumericPrice(r.PriceText); ok && n < MinPrice {
			c.logger.Debug("[cleaner] Dropping %q: price %d below floor", title, n)
			continue
		}

		id := DeriveID(title)
		if id == "" {
			c.logger.Debug("[cleaner] Dropping %q: empty id", title)
			continue
		}
		if !seen.Add(id) {
			c.logger.Debug("[cleaner] Duplicate id skipped: %s", id)
			continue
		}

		price, ok := NormalizePrice(r.PriceText)
		if !ok {
			price = r.PriceText
		}

		result = append(result, &models.Listing{
			ID:           id,
			Title:        title,
			Price:        price,
			Tag:          r.Tag,
			Image:        r.Image,
			Brand:        r.Brand,
			BodyType:     extractor.BodyType(r.Title + " " + r.BlockText),
			Year:         r.Year,
			Description:  r.Description,
			EngineCc:     r.EngineCc,
			Transmission: r.Transmission,
			Condition:    r.Condition,
			SellerType:   r.SellerType,
		})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// DeriveID slugs a title: lower-case, non-alphanumeric runs become a single
// hyphen, no leading or trailing hyphen. Applying it twice changes nothing.
func DeriveID(title string) string {
	s := slugSeparator.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}
