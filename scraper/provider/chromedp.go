package provider

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"catalog-scraper/utils"
)

// Chromedp renders pages in headless Chrome. The browser is started lazily
// on the first render and reused for every page of the run.
type Chromedp struct {
	opts   Options
	logger *utils.Logger

	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelTab   context.CancelFunc
}

func NewChromedp(opts Options, logger *utils.Logger) *Chromedp {
	return &Chromedp{opts: opts, logger: logger}
}

func (c *Chromedp) Name() string { return "chromedp" }

// start launches the browser once. Tabs opened from browserCtx share it.
func (c *Chromedp) start() error {
	if c.browserCtx != nil {
		return nil
	}

	chromeBin := c.opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	c.logger.Info("[chromedp] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	c.allocCtx, c.cancelAlloc = chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelTab := chromedp.NewContext(c.allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	if err := chromedp.Run(browserCtx); err != nil {
		cancelTab()
		c.cancelAlloc()
		c.allocCtx, c.cancelAlloc = nil, nil
		return fmt.Errorf("start browser: %w", err)
	}
	c.browserCtx, c.cancelTab = browserCtx, cancelTab
	return nil
}

// RenderPage opens pageURL in a fresh tab, waits for the body and a settle
// delay, and returns the outer HTML of the document.
func (c *Chromedp) RenderPage(ctx context.Context, pageURL string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	if err := c.start(); err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()

	timeout := c.opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var html, finalURL string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(c.opts.Settle),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	if finalURL == "" {
		finalURL = pageURL
	}

	return &Page{URL: finalURL, HTML: html}, nil
}

func (c *Chromedp) Close() error {
	if c.cancelTab != nil {
		c.cancelTab()
	}
	if c.cancelAlloc != nil {
		c.cancelAlloc()
	}
	return nil
}

// findChromeBinary locates a Chrome or Chromium executable on the system.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
