package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"product-discovery/models"
	"product-discovery/sorting"
	"product-discovery/utils"
)

const topRatedLimit = 5

// InsightService summarises a product set, typically the engine's filtered
// results.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(products []*models.Product) *models.InsightReport {
	report := &models.InsightReport{
		ProductsByCategory: make(map[string]int),
	}

	if len(products) == 0 {
		return report
	}

	report.TotalProducts = len(products)

	var priced []*models.Product
	var rated []*models.Product

	for _, p := range products {
		v := p.Price.Value()
		if v > 0 && !math.IsInf(v, 0) {
			priced = append(priced, p)
		}
		if p.Rating != nil {
			rated = append(rated, p)
		}
		if p.Category != "" {
			report.ProductsByCategory[p.Category]++
		}
	}

	// Price stats (only products with price > 0)
	report.PricedProducts = len(priced)
	if len(priced) > 0 {
		b := Bounds(priced)
		var total float64
		for _, p := range priced {
			total += p.Price.Value()
			if report.MostExpensive == nil || p.Price.Value() > report.MostExpensive.Price.Value() {
				report.MostExpensive = p
			}
		}
		report.AveragePrice = round2(total / float64(len(priced)))
		report.MinPrice = round2(b.Min)
		report.MaxPrice = round2(b.Max)
	}

	// Top rated, ties keep catalog order
	top, err := sorting.Sort(rated, sorting.Options[*models.Product]{Key: "rating", Direction: sorting.Desc})
	if err != nil {
		s.logger.Error("[insights] Sorting by rating: %v", err)
		return report
	}
	if len(top) > topRatedLimit {
		top = top[:topRatedLimit]
	}
	report.TopRated = top

	return report
}

// Print renders the report to w.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  CATALOG INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Products        : \033[1m%d\033[0m\n", r.TotalProducts)
	fmt.Fprintf(w, "  With a price    : \033[1m%d\033[0m\n\n", r.PricedProducts)

	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.PricedProducts > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m%.2f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : \033[1;32m%.2f\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : \033[1;32m%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Product\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.MostExpensive.Name, 50))
		fmt.Fprintf(w, "  Price : \033[1;31m%s\033[0m\n\n", r.MostExpensive.Price)
	}

	fmt.Fprintf(w, "\033[1;33m  Top %d Highest Rated\033[0m\n", topRatedLimit)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopRated) == 0 {
		fmt.Fprintf(w, "  No rated products found\n")
	} else {
		for i, p := range r.TopRated {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%.2f ★\033[0m\n",
				i+1, truncate(p.Name, 38), *p.Rating)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Products by Category\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ProductsByCategory) == 0 {
		fmt.Fprintf(w, "  No category data\n")
	} else {
		type catCount struct {
			cat   string
			count int
		}
		var cats []catCount
		for cat, cnt := range r.ProductsByCategory {
			cats = append(cats, catCount{cat, cnt})
		}
		// map order is random, so break count ties by name
		sort.Slice(cats, func(i, j int) bool {
			if cats[i].count != cats[j].count {
				return cats[i].count > cats[j].count
			}
			return cats[i].cat < cats[j].cat
		})
		for _, cc := range cats {
			bar := strings.Repeat("█", cc.count)
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(cc.cat, 28), bar, cc.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
