package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	_ "github.com/lib/pq"

	"product-discovery/models"
)

const insertColumns = 10

// PostgresStore keeps the catalog in a products table. Rows come back in
// their original catalog order (the position column).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: open")
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, errors.Wrap(ctx.Err(), "postgres: ping")
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "postgres: ping failed after retries")
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "postgres: migrate")
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id            TEXT          PRIMARY KEY,
			position      INTEGER       NOT NULL,
			name          TEXT          NOT NULL,
			display_price TEXT          NOT NULL DEFAULT '',
			price         NUMERIC(12,2) NOT NULL DEFAULT 0,
			category      TEXT          NOT NULL DEFAULT '',
			rating        NUMERIC(3,2),
			reviews       INTEGER       NOT NULL DEFAULT 0,
			image         TEXT          NOT NULL DEFAULT '',
			description   TEXT          NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_products_position ON products(position);
		CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
		CREATE INDEX IF NOT EXISTS idx_products_price    ON products(price);
	`)
	return err
}

// WriteProducts replaces the stored catalog with products, in one transaction.
func (ps *PostgresStore) WriteProducts(products []*models.Product) error {
	return ps.Replace(context.Background(), products)
}

// Replace clears the table and batch-inserts products, keeping their order.
func (ps *PostgresStore) Replace(ctx context.Context, products []*models.Product) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "postgres: begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return errors.Wrap(err, "postgres: clear")
	}

	const batchSize = 50
	for i := 0; i < len(products); i += batchSize {
		end := i + batchSize
		if end > len(products) {
			end = len(products)
		}
		query, args := insertBatch(products[i:end], i)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrapf(err, "postgres: insert batch at %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "postgres: commit")
	}
	return nil
}

// insertBatch builds a multi-row INSERT for batch, numbering positions from offset.
func insertBatch(batch []*models.Product, offset int) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*insertColumns)

	for idx, p := range batch {
		base := idx * insertColumns
		placeholders := make([]string, insertColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		var rating sql.NullFloat64
		if p.Rating != nil {
			rating = sql.NullFloat64{Float64: *p.Rating, Valid: true}
		}
		valueArgs = append(valueArgs,
			p.ID, offset+idx, p.Name, p.Price.Display, p.Price.Value(),
			p.Category, rating, p.Reviews, p.Image, p.Description)
	}

	query := fmt.Sprintf(`
		INSERT INTO products (id, position, name, display_price, price, category, rating, reviews, image, description)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}

// Load retrieves the stored catalog as raw records, in catalog order.
func (ps *PostgresStore) Load(ctx context.Context) ([]*models.RawProduct, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, name, display_price, price, category, rating, reviews, image, description
		FROM products
		ORDER BY position, id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: fetch all")
	}
	defer rows.Close()

	var products []*models.RawProduct
	for rows.Next() {
		var (
			r       productRecord
			rating  sql.NullFloat64
			reviews int
		)
		if err := rows.Scan(
			&r.ID, &r.Name, &r.DisplayPrice, &r.Price, &r.Category,
			&rating, &reviews, &r.Image, &r.Description,
		); err != nil {
			return nil, errors.Wrap(err, "postgres: scan row")
		}
		if rating.Valid {
			r.Rating = &rating.Float64
		}
		r.Reviews = reviews
		products = append(products, r.raw())
	}
	return products, rows.Err()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

type productRecord struct {
	ID           string
	Name         string
	DisplayPrice string
	Price        float64
	Category     string
	Rating       *float64
	Reviews      int
	Image        string
	Description  string
}

// raw converts a stored row back into a RawProduct. The display price wins
// when present so the storefront text survives the round trip.
func (r productRecord) raw() *models.RawProduct {
	price := r.DisplayPrice
	if price == "" {
		price = fmt.Sprintf("%.2f", r.Price)
	}
	rating := ""
	if r.Rating != nil {
		rating = fmt.Sprintf("%.2f", *r.Rating)
	}
	return &models.RawProduct{
		ID:          r.ID,
		Name:        r.Name,
		RawPrice:    price,
		Category:    r.Category,
		Rating:      rating,
		Reviews:     fmt.Sprintf("%d", r.Reviews),
		Image:       r.Image,
		Description: r.Description,
		Source:      "postgres",
	}
}
