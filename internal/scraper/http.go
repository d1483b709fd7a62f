package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gocolly/colly/v2"

	"github.com/vitor-labes/catalogue-scraper/internal/config"
)

// HTTPFetcher loads listing pages with a plain GET request.
type HTTPFetcher struct {
	collector *colly.Collector
	selectors config.Selectors
}

func NewHTTPFetcher(cfg *config.Config, proxy string) (*HTTPFetcher, error) {
	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		// retries and later crawls request the same page URLs again
		colly.AllowURLRevisit(),
	)

	if cfg.RequestTimeout > 0 {
		c.SetRequestTimeout(cfg.RequestTimeout)
	}

	if proxy != "" {
		if err := c.SetProxy(proxy); err != nil {
			return nil, fmt.Errorf("failed to configure proxy: %w", err)
		}
	}

	return &HTTPFetcher{
		collector: c,
		selectors: cfg.Selectors,
	}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	c := f.collector.Clone()

	var (
		body       []byte
		statusCode int
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	slog.Debug("fetching page", "url", url)

	if err := c.Visit(url); err != nil {
		if statusCode == http.StatusNotFound {
			return Page{NotFound: true}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Page{}, ctxErr
		}
		return Page{}, &FetchError{URL: url, StatusCode: statusCode, Err: err}
	}

	if body == nil && ctx.Err() != nil {
		return Page{}, ctx.Err()
	}

	products, err := ParseListing(bytes.NewReader(body), f.selectors)
	if err != nil {
		return Page{}, err
	}

	return Page{Products: products}, nil
}

