package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/vitor-labes/catalogue-scraper/internal/cache"
	"github.com/vitor-labes/catalogue-scraper/internal/config"
	"github.com/vitor-labes/catalogue-scraper/internal/domain"
	"github.com/vitor-labes/catalogue-scraper/internal/metrics"
	"github.com/vitor-labes/catalogue-scraper/internal/scraper"
)

type StopReason string

const (
	StopMaxPages         StopReason = "max_pages"
	StopPageLimit        StopReason = "page_limit"
	StopEndOfCatalogue   StopReason = "end_of_catalogue"
	StopRetriesExhausted StopReason = "retries_exhausted"
	StopFailed           StopReason = "failed"
)

// Result is everything one crawl accumulated. On failure it holds the
// products accepted before the error.
type Result struct {
	Products     []domain.Product
	PagesVisited int
	Seen         int
	Unchanged    int
	StopReason   StopReason
}

// FetcherFactory builds the page fetcher used for a single crawl. Fetchers
// that implement io.Closer are closed when the crawl ends.
type FetcherFactory func(settings domain.CrawlSettings) (scraper.PageFetcher, error)

type Crawler struct {
	cfg        *config.Config
	cache      *cache.ChangeCache
	newFetcher FetcherFactory
}

func New(cfg *config.Config, changes *cache.ChangeCache, newFetcher FetcherFactory) *Crawler {
	return &Crawler{
		cfg:        cfg,
		cache:      changes,
		newFetcher: newFetcher,
	}
}

// Crawl walks baseURL page by page until a stop condition is met. Pages are
// loaded strictly in order.
func (c *Crawler) Crawl(ctx context.Context, baseURL string, settings domain.CrawlSettings) (*Result, error) {
	result := &Result{}

	if settings.MaxPages < 0 {
		result.StopReason = StopFailed
		return result, fmt.Errorf("max pages must be positive, got %d", settings.MaxPages)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		result.StopReason = StopFailed
		return result, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	source := base.Host
	if source == "" {
		source = base.Path
	}

	fetcher, err := c.newFetcher(settings)
	if err != nil {
		result.StopReason = StopFailed
		return result, fmt.Errorf("failed to create page fetcher: %w", err)
	}
	if closer, ok := fetcher.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close page fetcher", "error", err)
			}
		}()
	}

	loader := scraper.NewLoader(fetcher, c.cfg.MaxAttempts, c.cfg.RetryBackoff)

	slog.Info("starting crawl",
		"base_url", baseURL,
		"max_pages", settings.MaxPages,
		"hard_page_limit", c.cfg.HardPageLimit,
	)

	for page := 1; ; page++ {
		if settings.MaxPages > 0 && page > settings.MaxPages {
			result.StopReason = StopMaxPages
			break
		}
		if page > c.cfg.HardPageLimit {
			result.StopReason = StopPageLimit
			break
		}

		startTime := time.Now()
		pageURL := c.pageURL(base, page)

		slog.Info("loading page", "page", page, "url", pageURL)

		loaded, err := loader.Load(ctx, pageURL)
		result.PagesVisited = page
		if err != nil {
			metrics.PagesProcessed.WithLabelValues(source, "error").Inc()
			return c.fail(result, fmt.Errorf("page %d: %w", page, err))
		}

		duration := time.Since(startTime).Seconds()
		metrics.PageDuration.WithLabelValues(source).Observe(duration)

		switch loaded.Outcome {
		case scraper.OutcomeEmpty:
			metrics.PagesProcessed.WithLabelValues(source, "not_found").Inc()
			result.StopReason = StopEndOfCatalogue
		case scraper.OutcomeExhausted:
			metrics.PagesProcessed.WithLabelValues(source, "empty").Inc()
			slog.Warn("page stayed empty after retries",
				"page", page,
				"attempts", loaded.Attempts,
			)
			result.StopReason = StopRetriesExhausted
		}
		if result.StopReason != "" {
			break
		}

		accepted, err := c.filter(ctx, loaded.Products, result)
		if err != nil {
			metrics.PagesProcessed.WithLabelValues(source, "error").Inc()
			return c.fail(result, fmt.Errorf("page %d: %w", page, err))
		}

		metrics.PagesProcessed.WithLabelValues(source, "success").Inc()
		metrics.ProductsAccepted.WithLabelValues(source).Add(float64(accepted))
		metrics.ProductsUnchanged.WithLabelValues(source).Add(float64(len(loaded.Products) - accepted))

		slog.Info("page processed",
			"page", page,
			"products", len(loaded.Products),
			"accepted", accepted,
			"total", len(result.Products),
			"attempts", loaded.Attempts,
			"duration_seconds", fmt.Sprintf("%.2f", duration),
		)
	}

	metrics.CrawlsFinished.WithLabelValues(string(result.StopReason)).Inc()

	slog.Info("crawl finished",
		"reason", result.StopReason,
		"pages", result.PagesVisited,
		"accepted", len(result.Products),
		"unchanged", result.Unchanged,
	)

	return result, nil
}

// filter appends new or re-priced products to the result and refreshes the
// cache entry of every product on the page.
func (c *Crawler) filter(ctx context.Context, products []domain.Product, result *Result) (int, error) {
	accepted := 0
	for _, p := range products {
		result.Seen++

		ok, err := c.cache.ShouldAccept(ctx, p)
		if err != nil {
			return accepted, err
		}
		if ok {
			result.Products = append(result.Products, p)
			accepted++
		} else {
			result.Unchanged++
		}

		if err := c.cache.Accept(ctx, p); err != nil {
			return accepted, err
		}
	}
	return accepted, nil
}

func (c *Crawler) fail(result *Result, err error) (*Result, error) {
	result.StopReason = StopFailed
	metrics.CrawlsFinished.WithLabelValues(string(StopFailed)).Inc()
	slog.Error("crawl aborted",
		"pages", result.PagesVisited,
		"accepted", len(result.Products),
		"error", err,
	)
	return result, err
}

func (c *Crawler) pageURL(base *url.URL, page int) string {
	u := *base
	q := u.Query()
	q.Set(c.cfg.PageParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
