package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vitor-labes/catalogue-scraper/internal/domain"
)

// CSVSink writes each crawl to its own timestamped file under Dir.
type CSVSink struct {
	Dir string
	now func() time.Time
}

func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{Dir: dir, now: time.Now}
}

func (s *CSVSink) Save(_ context.Context, products []domain.Product) error {
	if len(products) == 0 {
		slog.Info("no products to export")
		return nil
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	filename := fmt.Sprintf("products_%s.csv",
		s.now().Format("20060102_150405"))

	path := filepath.Join(s.Dir, filename)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	file.WriteString("\uFEFF")

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"Name", "Price", "Image URL"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, p := range products {
		if err := writer.Write([]string{p.Name, p.Price, p.ImageURL}); err != nil {
			return fmt.Errorf("failed to write %q: %w", p.Name, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	slog.Info("CSV exported",
		"filepath", path,
		"total_products", len(products),
	)

	return nil
}
