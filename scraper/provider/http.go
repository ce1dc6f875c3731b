package provider

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"catalog-scraper/utils"
)

// HTTP fetches pages without a browser. It only sees server-rendered markup.
type HTTP struct {
	client *resty.Client
	logger *utils.Logger
}

func NewHTTP(opts Options, logger *utils.Logger) *HTTP {
	client := resty.New().
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &HTTP{client: client, logger: logger}
}

func (h *HTTP) Name() string { return "http" }

func (h *HTTP) RenderPage(ctx context.Context, pageURL string) (*Page, error) {
	res, err := h.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	if res.IsError() {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("unexpected status %s", res.Status())}
	}

	finalURL := pageURL
	if raw := res.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		finalURL = raw.Request.URL.String()
	}
	h.logger.Debug("[http] %s → %d (%d bytes)", finalURL, res.StatusCode(), len(res.Body()))

	return &Page{URL: finalURL, HTML: res.String()}, nil
}

func (h *HTTP) Close() error { return nil }
