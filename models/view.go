package models

import "github.com/go-faster/errors"

// ErrUnknownSortKey is returned by ParseSortKey for anything but the three
// supported orderings.
var ErrUnknownSortKey = errors.New("unknown sort key")

// SortKey selects the ordering applied to the filtered result set.
type SortKey string

const (
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortRating    SortKey = "rating"
)

// ParseSortKey validates a user-supplied sort key.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortPriceAsc, SortPriceDesc, SortRating:
		return k, nil
	}
	return "", errors.Wrapf(ErrUnknownSortKey, "%q (want price-asc, price-desc or rating)", s)
}

// View is a consistent snapshot of the engine state and everything derived
// from it.
type View struct {
	Products       []*Product
	CurrentPage    int
	TotalPages     int
	TotalItems     int
	PageSize       int
	ActiveCategory string
	SortKey        SortKey
	PriceRange     Bounds
	AvailablePrice Bounds
}
