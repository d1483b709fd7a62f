package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vitor-labes/catalogue-scraper/internal/domain"
)

// ErrUnavailable wraps every failure of the backing store.
var ErrUnavailable = errors.New("cache unavailable")

// Store is a string key/value service with per-key expiry.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// ChangeCache remembers the last seen price of every product name.
type ChangeCache struct {
	store Store
	ttl   time.Duration
}

func NewChangeCache(store Store, ttl time.Duration) *ChangeCache {
	return &ChangeCache{store: store, ttl: ttl}
}

// ShouldAccept reports whether the product is unknown or re-priced.
func (c *ChangeCache) ShouldAccept(ctx context.Context, p domain.Product) (bool, error) {
	cached, found, err := c.store.Get(ctx, p.CacheKey())
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", p.CacheKey(), err)
	}
	return !found || cached != p.Price, nil
}

// Accept records the product's price with a fresh TTL. It is called for every
// product seen, changed or not.
func (c *ChangeCache) Accept(ctx context.Context, p domain.Product) error {
	if err := c.store.Set(ctx, p.CacheKey(), p.Price, c.ttl); err != nil {
		return fmt.Errorf("failed to write %s: %w", p.CacheKey(), err)
	}
	return nil
}
