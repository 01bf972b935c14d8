package services

import (
	"math"

	"github.com/go-faster/errors"

	"product-discovery/models"
	"product-discovery/sorting"
	"product-discovery/utils"
)

// DefaultPageSize matches the storefront grid (three rows of three).
const DefaultPageSize = 9

// ErrInvalidPageSize is returned by NewEngine for a page size below 1.
var ErrInvalidPageSize = errors.New("engine: page size must be positive")

// Engine maintains the category filter, price range, sort order and current
// page over a catalog, and the view derived from them. Every command
// recomputes the view before returning, so readers never see a partially
// applied change.
//
// An Engine is not safe for concurrent use; callers must serialise access.
type Engine struct {
	logger   *utils.Logger
	catalog  []*models.Product
	pageSize int

	activeCategory string
	sortKey        models.SortKey
	priceRange     models.Bounds
	currentPage    int

	// derived
	catalogBounds models.Bounds
	byCategory    []*models.Product
	available     models.Bounds
	sorted        []*models.Product
	totalPages    int
}

// NewEngine creates an Engine over catalog showing pageSize products per page.
// It starts on "All", price-asc, the full catalog price span and page 1.
func NewEngine(catalog []*models.Product, pageSize int, logger *utils.Logger) (*Engine, error) {
	if pageSize <= 0 {
		return nil, errors.Wrapf(ErrInvalidPageSize, "got %d", pageSize)
	}
	if logger == nil {
		logger = utils.Discard()
	}

	e := &Engine{
		logger:         logger,
		catalog:        catalog,
		pageSize:       pageSize,
		activeCategory: models.CategoryAll,
		sortKey:        models.SortPriceAsc,
		currentPage:    1,
	}
	e.catalogBounds = Bounds(catalog)
	e.byCategory = filterByCategory(catalog, e.activeCategory)
	e.priceRange = e.catalogBounds
	e.refresh()

	e.logger.Debug("[engine] Created over %d products, page size %d, price %.2f–%.2f",
		len(catalog), pageSize, e.priceRange.Min, e.priceRange.Max)
	return e, nil
}

// Bounds returns the min/max numeric price over products with a finite
// price, or {0, 0} when there are none.
func Bounds(products []*models.Product) models.Bounds {
	var b models.Bounds
	found := false

	for _, p := range products {
		v := p.Price.Value()
		if !isFinite(v) {
			continue
		}
		if !found {
			b = models.Bounds{Min: v, Max: v}
			found = true
			continue
		}
		b.Min = math.Min(b.Min, v)
		b.Max = math.Max(b.Max, v)
	}
	return b
}

// SetCategory switches the category filter. The price range is reset to the
// span of the new category (or the whole catalog when the category is empty)
// and the page returns to 1.
//
// The label is not checked against the catalog: an unknown label is stored
// as given and selects no products, so ActiveCategory may report a label
// that Categories does not list.
func (e *Engine) SetCategory(label string) {
	e.activeCategory = label
	e.byCategory = filterByCategory(e.catalog, label)
	e.priceRange = e.categoryBounds()
	e.currentPage = 1
	e.refresh()

	e.logger.Debug("[engine] Category %q — %d products, price %.2f–%.2f",
		label, len(e.byCategory), e.priceRange.Min, e.priceRange.Max)
}

// SetPriceRange clamps [min, max] into the available price span, keeping
// min <= max. Non-finite bounds are ignored. The page is reset only when the
// stored range actually changes.
func (e *Engine) SetPriceRange(min, max float64) {
	if !isFinite(min) || !isFinite(max) {
		e.logger.Debug("[engine] Ignoring non-finite price range [%v, %v]", min, max)
		return
	}

	clampedMin := clamp(min, e.available.Min, e.available.Max)
	clampedMax := clamp(max, clampedMin, e.available.Max)

	next := models.Bounds{Min: clampedMin, Max: clampedMax}
	if next == e.priceRange {
		return
	}

	e.priceRange = next
	e.currentPage = 1
	e.refresh()
}

// SetSortKey changes the ordering and returns to page 1. Keys other than
// price-asc, price-desc and rating are ignored.
func (e *Engine) SetSortKey(key models.SortKey) {
	if _, err := models.ParseSortKey(string(key)); err != nil {
		e.logger.Debug("[engine] Ignoring sort key: %v", err)
		return
	}

	e.sortKey = key
	e.currentPage = 1
	e.refresh()
}

// GoToPage moves to page n, clamped to [1, TotalPages]. Fractional pages are
// floored; NaN is ignored.
func (e *Engine) GoToPage(n float64) {
	if math.IsNaN(n) {
		e.logger.Debug("[engine] Ignoring non-numeric page")
		return
	}

	n = clamp(n, 1, float64(e.totalPages))
	e.currentPage = int(math.Floor(n))
}

// SetCatalog replaces the catalog and recomputes everything the way
// NewEngine does. The active category survives only if some product still
// carries it; the price range is reset to the available span and the current
// page is re-clamped.
func (e *Engine) SetCatalog(catalog []*models.Product) {
	e.catalog = catalog
	e.catalogBounds = Bounds(catalog)

	if e.activeCategory != models.CategoryAll && !hasCategory(catalog, e.activeCategory) {
		e.logger.Debug("[engine] Category %q gone from new catalog — resetting to %s",
			e.activeCategory, models.CategoryAll)
		e.activeCategory = models.CategoryAll
	}

	e.byCategory = filterByCategory(e.catalog, e.activeCategory)
	e.priceRange = e.categoryBounds()
	e.refresh()
	e.currentPage = e.CurrentPage()
}

// CurrentProducts returns the products on the current page.
func (e *Engine) CurrentProducts() []*models.Product {
	start := (e.CurrentPage() - 1) * e.pageSize
	if start >= len(e.sorted) {
		return []*models.Product{}
	}
	end := start + e.pageSize
	if end > len(e.sorted) {
		end = len(e.sorted)
	}

	page := make([]*models.Product, end-start)
	copy(page, e.sorted[start:end])
	return page
}

// TotalPages is max(1, ceil(TotalItems / page size)).
func (e *Engine) TotalPages() int { return e.totalPages }

// CurrentPage returns the 1-based page, clamped against the live page count.
func (e *Engine) CurrentPage() int {
	if e.currentPage > e.totalPages {
		return e.totalPages
	}
	if e.currentPage < 1 {
		return 1
	}
	return e.currentPage
}

// TotalItems is the number of products left after filtering, before paging.
func (e *Engine) TotalItems() int { return len(e.sorted) }

// AvailablePriceRange is the price span the range filter can move within.
func (e *Engine) AvailablePriceRange() models.Bounds { return e.available }

// PriceRange is the user-selected range, always inside AvailablePriceRange.
func (e *Engine) PriceRange() models.Bounds { return e.priceRange }

// SortKey is the active ordering.
func (e *Engine) SortKey() models.SortKey { return e.sortKey }

// ActiveCategory is the selected category label, "All" by default.
func (e *Engine) ActiveCategory() string { return e.activeCategory }

// PageSize is the number of products per page.
func (e *Engine) PageSize() int { return e.pageSize }

// Catalog returns the products the engine was built over, unfiltered.
func (e *Engine) Catalog() []*models.Product { return e.catalog }

// Categories lists "All" followed by each distinct category label in the
// order it first appears in the catalog.
func (e *Engine) Categories() []string {
	seen := make(map[string]struct{})
	out := []string{models.CategoryAll}

	for _, p := range e.catalog {
		if p.Category == "" {
			continue
		}
		if _, dup := seen[p.Category]; dup {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// View returns a snapshot of the state and the derived results.
func (e *Engine) View() models.View {
	return models.View{
		Products:       e.CurrentProducts(),
		CurrentPage:    e.CurrentPage(),
		TotalPages:     e.totalPages,
		TotalItems:     len(e.sorted),
		PageSize:       e.pageSize,
		ActiveCategory: e.activeCategory,
		SortKey:        e.sortKey,
		PriceRange:     e.priceRange,
		AvailablePrice: e.available,
	}
}

// refresh reruns the pipeline from the category subset onwards:
// price → sort → page count. Callers refilter byCategory first when the
// category or catalog changed.
func (e *Engine) refresh() {
	e.available = e.categoryBounds()

	priced := filterByPrice(e.byCategory, e.priceRange)
	e.sorted = sortProducts(priced, e.sortKey)

	e.totalPages = int(math.Ceil(float64(len(e.sorted)) / float64(e.pageSize)))
	if e.totalPages < 1 {
		e.totalPages = 1
	}
}

// categoryBounds is the span of the category subset, falling back to the
// whole catalog when the subset is empty.
func (e *Engine) categoryBounds() models.Bounds {
	if len(e.byCategory) == 0 {
		return e.catalogBounds
	}
	return Bounds(e.byCategory)
}

func filterByCategory(products []*models.Product, label string) []*models.Product {
	if label == models.CategoryAll {
		out := make([]*models.Product, len(products))
		copy(out, products)
		return out
	}

	out := make([]*models.Product, 0)
	for _, p := range products {
		if p.Category == label {
			out = append(out, p)
		}
	}
	return out
}

// filterByPrice keeps products whose price lies in r, inclusive. Products
// with a non-finite price never match.
func filterByPrice(products []*models.Product, r models.Bounds) []*models.Product {
	out := make([]*models.Product, 0, len(products))
	for _, p := range products {
		v := p.Price.Value()
		if !isFinite(v) {
			continue
		}
		if v >= r.Min && v <= r.Max {
			out = append(out, p)
		}
	}
	return out
}

func sortProducts(products []*models.Product, key models.SortKey) []*models.Product {
	switch key {
	case models.SortRating:
		return mustSort(products, sorting.Options[*models.Product]{
			Key:       "rating",
			Direction: sorting.Desc,
		})
	case models.SortPriceDesc:
		return mustSort(products, sorting.Options[*models.Product]{
			Comparator: func(a, b *models.Product) int { return comparePrice(b, a) },
		})
	default:
		return mustSort(products, sorting.Options[*models.Product]{
			Comparator: comparePrice,
		})
	}
}

func comparePrice(a, b *models.Product) int {
	pa, pb := a.Price.Value(), b.Price.Value()
	switch {
	case pa < pb:
		return -1
	case pa > pb:
		return 1
	default:
		return 0
	}
}

// mustSort panics on an invalid sort spec: every call site here passes a
// comparator or a key.
func mustSort(products []*models.Product, opts sorting.Options[*models.Product]) []*models.Product {
	out, err := sorting.Sort(products, opts)
	if err != nil {
		panic(err)
	}
	return out
}

func hasCategory(products []*models.Product, label string) bool {
	for _, p := range products {
		if p.Category == label {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
