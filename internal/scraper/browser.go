package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/vitor-labes/catalogue-scraper/internal/config"
)

// BrowserFetcher renders listing pages in headless Chromium before parsing,
// for catalogues that build their product grid client-side.
type BrowserFetcher struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	page      playwright.Page
	selectors config.Selectors
	timeout   float64
}

func NewBrowserFetcher(cfg *config.Config, proxy string) (*BrowserFetcher, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
		},
	}
	if proxy != "" {
		launch.Proxy = &playwright.Proxy{Server: proxy}
	}

	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(cfg.UserAgent),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &BrowserFetcher{
		pw:        pw,
		browser:   browser,
		page:      page,
		selectors: cfg.Selectors,
		timeout:   float64(cfg.RequestTimeout.Milliseconds()),
	}, nil
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	slog.Debug("rendering page", "url", url)

	resp, err := f.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(f.timeout),
	})
	if err != nil {
		return Page{}, &FetchError{URL: url, Err: err}
	}

	if resp != nil {
		switch status := resp.Status(); {
		case status == http.StatusNotFound:
			return Page{NotFound: true}, nil
		case status >= 400:
			return Page{}, &FetchError{URL: url, StatusCode: status, Err: errors.New(http.StatusText(status))}
		}
	}

	if f.detectCloudflare() {
		slog.Warn("cloudflare challenge detected", "url", url)
	}

	content, err := f.page.Content()
	if err != nil {
		return Page{}, &FetchError{URL: url, Err: err}
	}

	products, err := ParseListing(strings.NewReader(content), f.selectors)
	if err != nil {
		return Page{}, err
	}

	return Page{Products: products}, nil
}

func (f *BrowserFetcher) detectCloudflare() bool {
	title, _ := f.page.Title()
	return strings.Contains(title, "Just a moment") || strings.Contains(title, "Cloudflare")
}

func (f *BrowserFetcher) Close() error {
	if err := f.browser.Close(); err != nil {
		f.pw.Stop()
		return err
	}
	return f.pw.Stop()
}
