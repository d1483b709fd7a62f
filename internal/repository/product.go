package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/vitor-labes/catalogue-scraper/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS catalogue_products (
		id         SERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		price      TEXT NOT NULL,
		image_url  TEXT NOT NULL,
		scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_catalogue_products_name ON catalogue_products(name);
`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(databaseURL string) (*ProductRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("connected to PostgreSQL")

	return &ProductRepository{db: db}, nil
}

const insertProduct = `
	INSERT INTO catalogue_products (name, price, image_url, scraped_at)
	VALUES ($1, $2, $3, $4)
	RETURNING id
`

// Save stores a single product. The queue consumer uses it per message.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) error {
	var id int
	err := r.db.QueryRowContext(
		ctx,
		insertProduct,
		product.Name,
		product.Price,
		product.ImageURL,
		time.Now(),
	).Scan(&id)

	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	slog.Debug("product saved",
		"id", id,
		"name", product.Name,
		"price", product.Price,
	)

	return nil
}

// SaveAll stores one crawl's products in a single transaction.
func (r *ProductRepository) SaveAll(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertProduct)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	scrapedAt := time.Now()
	for _, p := range products {
		var id int
		if err := stmt.QueryRowContext(ctx, p.Name, p.Price, p.ImageURL, scrapedAt).Scan(&id); err != nil {
			return fmt.Errorf("failed to insert %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}

	slog.Info("products saved to PostgreSQL", "total_products", len(products))
	return nil
}

func (r *ProductRepository) Close() error {
	return r.db.Close()
}

// PostgresSink adapts the repository to a crawl sink.
type PostgresSink struct {
	Repo *ProductRepository
}

func (s PostgresSink) Save(ctx context.Context, products []domain.Product) error {
	return s.Repo.SaveAll(ctx, products)
}
