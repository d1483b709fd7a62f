package scraper

import (
	"context"

	"github.com/vitor-labes/catalogue-scraper/internal/domain"
)

// Page is the outcome of a single fetch-and-parse of a listing page.
type Page struct {
	Products []domain.Product
	// NotFound is set when the source answered that the page does not exist.
	NotFound bool
}

// PageFetcher fetches one listing page. Implementations make exactly one
// attempt per call and return a *FetchError on transport failures.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}
