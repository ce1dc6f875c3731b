package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"catalog-scraper/utils"
)

// Rod renders pages through go-rod with stealth patches applied to every tab.
type Rod struct {
	opts    Options
	logger  *utils.Logger
	browser *rod.Browser
}

// NewRod launches a headless Chromium and connects to it.
func NewRod(opts Options, logger *utils.Logger) (*Rod, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")
	if opts.ChromeBin != "" {
		l = l.Bin(opts.ChromeBin)
	}

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	logger.Info("[rod] Browser ready at %s", launchURL)
	return &Rod{opts: opts, logger: logger, browser: browser}, nil
}

func (r *Rod) Name() string { return "rod" }

func (r *Rod) RenderPage(ctx context.Context, pageURL string) (*Page, error) {
	page, err := stealth.Page(r.browser)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("stealth page: %w", err)}
	}
	defer page.Close()

	timeout := r.opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	settle := r.opts.Settle
	if settle <= 0 {
		settle = 300 * time.Millisecond
	}
	page = page.Context(ctx)

	if err := page.Timeout(timeout).Navigate(pageURL); err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	if err := page.Timeout(timeout).WaitStable(settle); err != nil {
		r.logger.Warn("[rod] Page stability timeout on %s, continuing: %v", pageURL, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}

	finalURL := pageURL
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}
	return &Page{URL: finalURL, HTML: html}, nil
}

func (r *Rod) Close() error {
	return r.browser.Close()
}
