package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"catalog-scraper/config"
	"catalog-scraper/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageProvider renders a listing page and hands back its final HTML.
// Implementations are used by one goroutine at a time.
type PageProvider interface {
	RenderPage(ctx context.Context, pageURL string) (*Page, error)
	Name() string
	Close() error
}

// Page is a rendered document together with the URL it was loaded from.
type Page struct {
	URL  string
	HTML string

	doc *goquery.Document
}

// Document parses the page HTML once and returns the tree. The document's
// Url is set to the page URL so relative links can be resolved against it.
func (p *Page) Document() (*goquery.Document, error) {
	if p.doc != nil {
		return p.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.URL, err)
	}
	if u, err := url.Parse(p.URL); err == nil {
		doc.Url = u
	}
	p.doc = doc
	return doc, nil
}

// FetchError is returned when a page cannot be loaded or rendered.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options tune how pages are rendered.
type Options struct {
	Timeout   time.Duration
	Settle    time.Duration
	ChromeBin string
}

// OptionsFromConfig derives provider options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Timeout:   cfg.PageTimeout,
		Settle:    cfg.SettleDelay,
		ChromeBin: cfg.ChromeBin,
	}
}

// New returns the provider named by cfg.Browser.
func New(cfg *config.Config, logger *utils.Logger) (PageProvider, error) {
	opts := OptionsFromConfig(cfg)
	switch cfg.Browser {
	case "", "chromedp", "chrome":
		return NewChromedp(opts, logger), nil
	case "rod":
		return NewRod(opts, logger)
	case "http":
		return NewHTTP(opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown browser %q (want chromedp, rod or http)", cfg.Browser)
	}
}
