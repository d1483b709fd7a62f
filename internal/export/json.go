package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vitor-labes/catalogue-scraper/internal/domain"
)

// JSONSink overwrites Path with the products of the latest crawl.
type JSONSink struct {
	Path string
}

func NewJSONSink(path string) *JSONSink {
	return &JSONSink{Path: path}
}

func (s *JSONSink) Save(_ context.Context, products []domain.Product) error {
	if products == nil {
		products = []domain.Product{}
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(products, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode products: %w", err)
	}

	if err := os.WriteFile(s.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.Path, err)
	}

	slog.Info("products written", "path", s.Path, "total_products", len(products))
	return nil
}
