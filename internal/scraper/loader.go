package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/vitor-labes/catalogue-scraper/internal/domain"
	"github.com/vitor-labes/catalogue-scraper/internal/metrics"
)

type Outcome int

const (
	// OutcomeData means a non-empty page was loaded.
	OutcomeData Outcome = iota
	// OutcomeEmpty means the source reported the page does not exist.
	OutcomeEmpty
	// OutcomeExhausted means every attempt returned zero products.
	OutcomeExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeData:
		return "data"
	case OutcomeEmpty:
		return "empty"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

type LoadResult struct {
	Outcome  Outcome
	Products []domain.Product
	Attempts int
}

// Loader retries a PageFetcher while it returns empty pages. Fetch errors are
// returned straight away and never retried.
type Loader struct {
	fetcher     PageFetcher
	maxAttempts int
	backoff     time.Duration
}

func NewLoader(fetcher PageFetcher, maxAttempts int, backoff time.Duration) *Loader {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Loader{
		fetcher:     fetcher,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

func (l *Loader) Load(ctx context.Context, url string) (LoadResult, error) {
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		page, err := l.fetcher.Fetch(ctx, url)
		if err != nil {
			metrics.FetchAttempts.WithLabelValues("error").Inc()
			return LoadResult{Attempts: attempt}, err
		}

		if page.NotFound {
			metrics.FetchAttempts.WithLabelValues("not_found").Inc()
			return LoadResult{Outcome: OutcomeEmpty, Attempts: attempt}, nil
		}

		if len(page.Products) > 0 {
			metrics.FetchAttempts.WithLabelValues("data").Inc()
			return LoadResult{Outcome: OutcomeData, Products: page.Products, Attempts: attempt}, nil
		}

		metrics.FetchAttempts.WithLabelValues("empty").Inc()
		if attempt == l.maxAttempts {
			break
		}

		slog.Warn("empty page, retrying",
			"url", url,
			"attempt", attempt,
			"max_attempts", l.maxAttempts,
			"backoff", l.backoff,
		)

		if err := sleep(ctx, l.backoff); err != nil {
			return LoadResult{Attempts: attempt}, err
		}
	}

	return LoadResult{Outcome: OutcomeExhausted, Attempts: l.maxAttempts}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
