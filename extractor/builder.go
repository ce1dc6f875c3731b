package extractor

import (
	"net/url"
	"time"

	"catalog-scraper/models"
)

// Builder turns candidate blocks into raw listings.
type Builder struct {
	// Now stamps ScrapedAt; nil means time.Now.
	Now func() time.Time
}

// Build extracts every field from one candidate. It reports false when the
// block has no usable title or no price text; that is a normal outcome for
// wrapper and navigation elements, not an error.
func (b Builder) Build(c Candidate, pageURL *url.URL, page int) (*models.RawListing, bool) {
	title := Title(c.Selection)
	if title == "" || IsBoilerplate(title) {
		return nil, false
	}

	priceText := PriceText(c.Text)
	if priceText == "" {
		return nil, false
	}

	extras := ExtractExtras(c.Text)
	raw := &models.RawListing{
		Title:        title,
		PriceText:    priceText,
		Tag:          Tag(c.Text),
		Image:        Image(c.Selection, pageURL),
		Brand:        Brand(title),
		Year:         Year(title),
		Description:  Description(c.Text),
		EngineCc:     extras.EngineCc,
		Transmission: extras.Transmission,
		Condition:    extras.Condition,
		SellerType:   extras.SellerType,
		BlockText:    c.Text,
		Page:         page,
		ScrapedAt:    b.now(),
	}
	if pageURL != nil {
		raw.PageURL = pageURL.String()
	}
	return raw, true
}

// BuildAll runs Build over every candidate, keeping the accepted ones in order.
func (b Builder) BuildAll(cands []Candidate, pageURL *url.URL, page int) []*models.RawListing {
	out := make([]*models.RawListing, 0, len(cands))
	for _, c := range cands {
		if raw, ok := b.Build(c, pageURL, page); ok {
			out = append(out, raw)
		}
	}
	return out
}

func (b Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}
