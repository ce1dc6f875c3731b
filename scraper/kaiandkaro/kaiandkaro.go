package kaiandkaro

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"catalog-scraper/config"
	"catalog-scraper/extractor"
	"catalog-scraper/models"
	"catalog-scraper/scraper/provider"
	"catalog-scraper/services"
	"catalog-scraper/storage"
	"catalog-scraper/utils"
)

// PageURL returns base with its page query parameter set to n. Page 1 is
// the bare listing URL, so the parameter is removed rather than set.
func PageURL(base string, n int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}
	q := u.Query()
	if n > 1 {
		q.Set("page", strconv.Itoa(n))
	} else {
		q.Del("page")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Scraper walks the listing pages one after another and turns each rendered
// page into catalog listings.
type Scraper struct {
	cfg      *config.Config
	logger   *utils.Logger
	provider provider.PageProvider

	selector extractor.Selector
	builder  extractor.Builder
	cleaner  *services.Cleaner
	raw      storage.RawListingWriter
}

// New creates a Scraper that renders pages through p.
func New(cfg *config.Config, p provider.PageProvider, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:      cfg,
		logger:   logger,
		provider: p,
		selector: extractor.Selector{Limit: cfg.MaxCandidates},
		cleaner:  services.NewCleaner(logger),
	}
}

// WithRawWriter dumps every built raw listing to w before cleaning.
func (s *Scraper) WithRawWriter(w storage.RawListingWriter) *Scraper {
	s.raw = w
	return s
}

// Scrape renders pages 1..PagesToScrape in order. The first render failure
// aborts the run; listings from earlier pages are discarded with it.
func (s *Scraper) Scrape(ctx context.Context) ([]*models.Listing, error) {
	s.logger.Info("[kaiandkaro] Starting scrape: %d page(s) via %s from %s",
		s.cfg.PagesToScrape, s.provider.Name(), s.cfg.SourceURL)

	seen := utils.NewIDSet()
	var listings []*models.Listing

	for n := 1; n <= s.cfg.PagesToScrape; n++ {
		pageURL, err := PageURL(s.cfg.SourceURL, n)
		if err != nil {
			return nil, err
		}

		s.logger.Info("[kaiandkaro] Scraping page %d: %s", n, pageURL)
		page, err := s.provider.RenderPage(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}

		if s.cfg.Snapshot {
			s.snapshot(n, page.HTML)
		}

		doc, err := page.Document()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}

		candidates := s.selector.Select(doc)
		raw := s.builder.BuildAll(candidates, doc.Url, n)
		if s.raw != nil {
			if err := s.raw.WriteRaw(raw); err != nil {
				s.logger.Warn("[kaiandkaro] Raw CSV write failed: %v", err)
			}
		}

		clean := s.cleaner.Clean(raw, seen)
		listings = append(listings, clean...)

		s.logger.Info("[kaiandkaro] Page %d done: %d candidates, %d built, %d kept (%d total)",
			n, len(candidates), len(raw), len(clean), len(listings))
	}

	return listings, nil
}

// snapshot saves the rendered page for offline selector work. Failures are
// logged and otherwise ignored.
func (s *Scraper) snapshot(n int, html string) {
	if err := os.MkdirAll(s.cfg.SnapshotDir, 0o755); err != nil {
		s.logger.Warn("[kaiandkaro] Snapshot dir %s: %v", s.cfg.SnapshotDir, err)
		return
	}
	path := filepath.Join(s.cfg.SnapshotDir, fmt.Sprintf("vehicles-page-%d.html", n))
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		s.logger.Warn("[kaiandkaro] Snapshot %s: %v", path, err)
		return
	}
	s.logger.Debug("[kaiandkaro] Snapshot saved to %s", path)
}
