package storage

import (
	"context"

	"product-discovery/models"
)

// MemoryCatalog serves a fixed, in-process catalog.
type MemoryCatalog struct {
	products []*models.RawProduct
}

// NewMemoryCatalog wraps products; a nil slice yields the demo storefront catalog.
func NewMemoryCatalog(products []*models.RawProduct) *MemoryCatalog {
	if products == nil {
		products = DemoProducts()
	}
	return &MemoryCatalog{products: products}
}

// Load returns a copy of the records so callers can't disturb the source.
func (m *MemoryCatalog) Load(ctx context.Context) ([]*models.RawProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*models.RawProduct, len(m.products))
	for i, p := range m.products {
		cp := *p
		out[i] = &cp
	}
	return out, nil
}

func (m *MemoryCatalog) Close() error { return nil }

// DemoProducts is the storefront's built-in sample catalog.
func DemoProducts() []*models.RawProduct {
	return []*models.RawProduct{
		{ID: "1", Name: "Minimalist Watch", RawPrice: "$120.00", Category: "Accessories", Image: "/placeholder", Source: "demo"},
		{ID: "2", Name: "Leather Backpack", RawPrice: "$180.00", Category: "Bags", Image: "/placeholder", Source: "demo"},
		{ID: "3", Name: "Wireless Headphones", RawPrice: "$250.00", Category: "Electronics", Image: "/placeholder", Source: "demo"},
		{ID: "4", Name: "Cotton T-Shirt", RawPrice: "$35.00", Category: "Apparel", Image: "/placeholder", Source: "demo"},
		{ID: "5", Name: "Smart Speaker", RawPrice: "$99.00", Category: "Electronics", Image: "/placeholder", Source: "demo"},
		{ID: "6", Name: "Running Shoes", RawPrice: "$140.00", Category: "Footwear", Image: "/placeholder", Source: "demo"},
	}
}
