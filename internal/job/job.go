package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vitor-labes/catalogue-scraper/internal/crawler"
	"github.com/vitor-labes/catalogue-scraper/internal/domain"
)

// Sink persists the products accepted by a crawl.
type Sink interface {
	Save(ctx context.Context, products []domain.Product) error
}

// Notifier delivers a human readable message about a finished crawl.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type Crawler interface {
	Crawl(ctx context.Context, baseURL string, settings domain.CrawlSettings) (*crawler.Result, error)
}

type Request struct {
	BaseURL  string
	Settings domain.CrawlSettings
}

type Response struct {
	ProductsScraped int
	StopReason      crawler.StopReason
}

var ErrMissingBaseURL = errors.New("base url is required")

// Runner handles one scrape request end to end.
type Runner struct {
	crawler  Crawler
	sink     Sink
	notifier Notifier
}

func NewRunner(c Crawler, sink Sink, notifier Notifier) *Runner {
	return &Runner{
		crawler:  c,
		sink:     sink,
		notifier: notifier,
	}
}

// Run returns the number of accepted products even when the crawl fails part
// way. Products accepted before a failure are still saved.
func (r *Runner) Run(ctx context.Context, req Request) (Response, error) {
	if req.BaseURL == "" {
		return Response{}, ErrMissingBaseURL
	}

	result, crawlErr := r.crawler.Crawl(ctx, req.BaseURL, req.Settings)
	if result == nil {
		result = &crawler.Result{StopReason: crawler.StopFailed}
	}

	resp := Response{
		ProductsScraped: len(result.Products),
		StopReason:      result.StopReason,
	}

	if len(result.Products) > 0 || crawlErr == nil {
		if err := r.sink.Save(ctx, result.Products); err != nil {
			err = fmt.Errorf("failed to save products: %w", err)
			r.notify(ctx, fmt.Sprintf("Scraping failed: %v", err))
			return resp, errors.Join(crawlErr, err)
		}
	}

	if crawlErr != nil {
		r.notify(ctx, fmt.Sprintf("Scraping aborted after %d products: %v", resp.ProductsScraped, crawlErr))
		return resp, crawlErr
	}

	r.notify(ctx, fmt.Sprintf("Scraping complete. %d products scraped.", resp.ProductsScraped))
	return resp, nil
}

func (r *Runner) notify(ctx context.Context, message string) {
	if err := r.notifier.Notify(ctx, message); err != nil {
		slog.Error("failed to send notification", "error", err)
	}
}
