package kaiandkaro

import (
	"context"

	"catalog-scraper/models"
	"catalog-scraper/storage"
)

// Runner scrapes, merges with the prior catalog in append mode, and saves.
type Runner struct {
	Scraper *Scraper
	Catalog storage.Catalog
	// Mirror, when set, receives a copy of the saved catalog.
	Mirror storage.ListingWriter
}

// Result describes a completed run.
type Result struct {
	Listings []*models.Listing
	Scraped  int
	Appended bool
}

// Run performs one full scrape. Nothing is written when the scrape fails.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	s := r.Scraper
	fresh, err := s.Scrape(ctx)
	if err != nil {
		return nil, err
	}

	final := fresh
	appended := false
	if s.cfg.Append {
		prior, err := r.Catalog.Read(ctx)
		if err != nil {
			return nil, err
		}
		if len(prior) > 0 {
			final = storage.Merge(prior, fresh)
			appended = true
		}
	}

	if err := r.Catalog.Write(ctx, final); err != nil {
		return nil, err
	}

	suffix := ""
	if appended {
		suffix = " (appended)"
	}
	s.logger.Info("[kaiandkaro] Saved %d listings across %d page(s) to %s%s",
		len(final), s.cfg.PagesToScrape, s.cfg.OutputPath, suffix)

	if r.Mirror != nil {
		if err := r.Mirror.Write(ctx, final); err != nil {
			s.logger.Error("[kaiandkaro] PostgreSQL mirror write failed: %v", err)
		} else {
			s.logger.Info("[kaiandkaro] Catalog mirrored to PostgreSQL (table: catalog_listings)")
		}
	}

	return &Result{Listings: final, Scraped: len(fresh), Appended: appended}, nil
}
