package storage

import (
	"context"

	"product-discovery/models"
)

// CatalogSource is the interface any catalog backend must satisfy. Sources
// return products in catalog order, uncleaned.
type CatalogSource interface {
	Load(ctx context.Context) ([]*models.RawProduct, error)
	Close() error
}

// ProductWriter persists cleaned products, e.g. to seed a database or export
// a result set.
type ProductWriter interface {
	WriteProducts(products []*models.Product) error
	Close() error
}

var (
	_ CatalogSource = (*MemoryCatalog)(nil)
	_ CatalogSource = (*CSVReader)(nil)
	_ CatalogSource = (*PostgresStore)(nil)
	_ ProductWriter = (*CSVWriter)(nil)
	_ ProductWriter = (*PostgresStore)(nil)
)
