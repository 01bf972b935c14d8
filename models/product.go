package models

import (
	"math"
	"regexp"
	"strconv"
)

// CategoryAll selects every product regardless of its category label.
const CategoryAll = "All"

var (
	// priceStripRegexp matches everything that cannot be part of a plain decimal amount
	priceStripRegexp = regexp.MustCompile(`[^0-9.]`)
	// pricePrefixRegexp captures the longest leading decimal number
	pricePrefixRegexp = regexp.MustCompile(`^[0-9]*\.?[0-9]*`)
)

// Price is either a plain numeric amount or a display string (e.g. "$120.00")
// carrying its normalised amount. Engine code only ever reads Value().
type Price struct {
	Amount  float64
	Display string
}

// NumericPrice wraps a numeric amount as-is. Non-finite amounts are kept so
// the price filter can exclude them.
func NumericPrice(amount float64) Price {
	return Price{Amount: amount}
}

// DisplayPrice normalises a currency-formatted string into a Price.
func DisplayPrice(display string) Price {
	return Price{Amount: NormalizePrice(display), Display: display}
}

// Value returns the numeric amount used for filtering and sorting.
func (p Price) Value() float64 {
	return p.Amount
}

// String returns the display form when present, the plain amount otherwise.
func (p Price) String() string {
	if p.Display != "" {
		return p.Display
	}
	return strconv.FormatFloat(p.Amount, 'f', 2, 64)
}

// NormalizePrice strips every non-numeric character and parses the leading
// decimal number. Unparsable or non-finite results become 0.
//
//	"$1,200.50" → 1200.5
//	"USD 99"    → 99
//	"free"      → 0
func NormalizePrice(raw string) float64 {
	cleaned := priceStripRegexp.ReplaceAllString(raw, "")
	match := pricePrefixRegexp.FindString(cleaned)
	if match == "" {
		return 0
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0
	}
	return val
}

// Product is a single catalog item. The engine holds pointers to
// caller-owned products and never mutates them.
type Product struct {
	ID          string
	Name        string
	Price       Price
	Category    string
	Rating      *float64
	Reviews     int
	Image       string
	Description string
}

// SortField exposes the fields that can be used as a merge sort key.
// A nil rating reports as missing.
func (p Product) SortField(key string) (any, bool) {
	switch key {
	case "id":
		return p.ID, true
	case "name":
		return p.Name, true
	case "price":
		return p.Price.Value(), true
	case "category":
		if p.Category == "" {
			return nil, true
		}
		return p.Category, true
	case "rating":
		if p.Rating == nil {
			return nil, true
		}
		return *p.Rating, true
	case "reviews":
		return p.Reviews, true
	}
	return nil, false
}

// RawProduct holds unprocessed catalog data exactly as a source delivered it
// (CSV row, database row, scraped card), before cleaning.
type RawProduct struct {
	ID          string
	Name        string
	RawPrice    string
	Category    string
	Rating      string
	Reviews     string
	Image       string
	Description string
	Source      string
}

// Bounds is the numeric price span of a set of products.
type Bounds struct {
	Min float64
	Max float64
}

// InsightReport holds summary figures over a product set.
type InsightReport struct {
	TotalProducts      int
	PricedProducts     int
	AveragePrice       float64
	MinPrice           float64
	MaxPrice           float64
	MostExpensive      *Product
	TopRated           []*Product
	ProductsByCategory map[string]int
}
