package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"product-discovery/config"
	"product-discovery/models"
	"product-discovery/scraper/storefront"
	"product-discovery/services"
	"product-discovery/storage"
	"product-discovery/utils"
)

type options struct {
	source   string
	csvPath  string
	category string
	minPrice float64
	maxPrice float64
	sortKey  string
	page     int
	pageSize int
	export   string
	insights bool
	seed     bool
	id       string
}

func main() {
	os.Exit(execute(config.Load(), os.Args[1:]))
}

// execute runs the root command and returns the process exit code, so the
// signal handler is released before main exits.
func execute(cfg *config.Config, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd(cfg)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &options{
		minPrice: math.NaN(),
		maxPrice: math.NaN(),
	}

	cmd := &cobra.Command{
		Use:   "product-discovery",
		Short: "Browse a product catalog by category, price range and sort order",
		Long: "Loads a catalog (demo, CSV, PostgreSQL or a live storefront), then filters,\n" +
			"sorts and paginates it the way the storefront product grid does.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.source, "source", cfg.CatalogSource, "catalog source: demo, csv, postgres or storefront")
	f.StringVar(&opts.csvPath, "csv", cfg.CatalogCSVPath, "catalog CSV path for --source=csv")
	f.StringVar(&opts.category, "category", models.CategoryAll, "category to show")
	f.Float64Var(&opts.minPrice, "min", opts.minPrice, "minimum price (clamped to the category's span)")
	f.Float64Var(&opts.maxPrice, "max", opts.maxPrice, "maximum price (clamped to the category's span)")
	f.StringVar(&opts.sortKey, "sort", string(models.SortPriceAsc), "sort order: price-asc, price-desc or rating")
	f.IntVar(&opts.page, "page", 1, "page to show")
	f.IntVar(&opts.pageSize, "page-size", cfg.PageSize, "products per page")
	f.StringVar(&opts.export, "export", cfg.ExportCSVPath, "write the full filtered result set to this CSV file")
	f.BoolVar(&opts.insights, "insights", false, "print a summary of the filtered result set")
	f.BoolVar(&opts.seed, "seed", false, "store the loaded catalog in PostgreSQL")
	f.StringVar(&opts.id, "id", "", "show a single product by ID instead of the result grid")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, opts *options, out io.Writer) error {
	logger := utils.NewLogger(utils.ParseLevel(cfg.LogLevel))

	sortKey, err := models.ParseSortKey(opts.sortKey)
	if err != nil {
		logger.Error("Invalid --sort: %v", err)
		return err
	}

	catalog, err := loadCatalog(ctx, cfg, opts, logger)
	if err != nil {
		logger.Error("Failed to load catalog: %v", err)
		return err
	}

	if opts.seed {
		if err := seedPostgres(ctx, cfg, catalog, logger); err != nil {
			logger.Error("Seeding PostgreSQL failed: %v", err)
			return err
		}
	}

	engine, err := services.NewEngine(catalog, opts.pageSize, logger)
	if err != nil {
		logger.Error("Failed to create engine: %v", err)
		return err
	}

	if opts.id != "" {
		p := services.FindProduct(engine.Catalog(), opts.id)
		if p == nil {
			err := errors.Errorf("no product with id %q", opts.id)
			logger.Error("Lookup failed: %v", err)
			return err
		}
		printProduct(out, p)
		return nil
	}

	// Commands run in pipeline order so each one clamps against the
	// state left by the previous.
	if opts.category != models.CategoryAll {
		engine.SetCategory(opts.category)
	}
	if !math.IsNaN(opts.minPrice) || !math.IsNaN(opts.maxPrice) {
		r := engine.AvailablePriceRange()
		lo, hi := opts.minPrice, opts.maxPrice
		if math.IsNaN(lo) {
			lo = r.Min
		}
		if math.IsNaN(hi) {
			hi = r.Max
		}
		engine.SetPriceRange(lo, hi)
	}
	engine.SetSortKey(sortKey)
	engine.GoToPage(float64(opts.page))

	printView(out, engine.View(), engine.Categories())

	if opts.export != "" || opts.insights {
		results := allResults(engine)

		if opts.export != "" {
			if err := exportCSV(opts.export, results); err != nil {
				logger.Error("Export failed: %v", err)
				return err
			}
			logger.Info("Exported %d products to %s", len(results), opts.export)
		}

		if opts.insights {
			svc := services.NewInsightService(logger)
			svc.Print(out, svc.Generate(results))
		}
	}

	return nil
}

func loadCatalog(ctx context.Context, cfg *config.Config, opts *options, logger *utils.Logger) ([]*models.Product, error) {
	var src storage.CatalogSource

	switch strings.ToLower(opts.source) {
	case config.SourceDemo, "":
		src = storage.NewMemoryCatalog(nil)
	case config.SourceCSV:
		src = storage.NewCSVReader(opts.csvPath)
	case config.SourcePostgres:
		pg, err := storage.NewPostgresStore(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		src = pg
	case config.SourceStorefront:
		src = storefront.New(cfg, logger)
	default:
		return nil, errors.Errorf("unknown catalog source %q", opts.source)
	}
	defer src.Close()

	raw, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d raw products from %s", len(raw), opts.source)

	return services.NewCleaner(logger).Clean(raw), nil
}

func seedPostgres(ctx context.Context, cfg *config.Config, catalog []*models.Product, logger *utils.Logger) error {
	pg, err := storage.NewPostgresStore(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.Replace(ctx, catalog); err != nil {
		return err
	}
	logger.Info("Stored %d products in PostgreSQL (table: products)", len(catalog))
	return nil
}

// allResults walks every page of the current result set without disturbing
// the caller's page.
func allResults(engine *services.Engine) []*models.Product {
	current := engine.CurrentPage()
	defer engine.GoToPage(float64(current))

	results := make([]*models.Product, 0, engine.TotalItems())
	for page := 1; page <= engine.TotalPages(); page++ {
		engine.GoToPage(float64(page))
		results = append(results, engine.CurrentProducts()...)
	}
	return results
}

func exportCSV(path string, products []*models.Product) error {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteProducts(products); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func printView(w io.Writer, v models.View, categories []string) {
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;33m  %s\033[0m · %s · %.2f–%.2f (available %.2f–%.2f)\n",
		v.ActiveCategory, v.SortKey, v.PriceRange.Min, v.PriceRange.Max,
		v.AvailablePrice.Min, v.AvailablePrice.Max)
	fmt.Fprintf(w, "  Categories: %s\n", strings.Join(categories, ", "))
	fmt.Fprintf(w, "  %s\n", thin)

	if len(v.Products) == 0 {
		fmt.Fprintf(w, "  No products match these filters\n")
	}
	for i, p := range v.Products {
		rating := "  -  "
		if p.Rating != nil {
			rating = fmt.Sprintf("%.2f★", *p.Rating)
		}
		fmt.Fprintf(w, "  %2d. %-32s %-12s %10s  %s\n",
			(v.CurrentPage-1)*v.PageSize+i+1, truncate(p.Name, 32), truncate(p.Category, 12), p.Price, rating)
	}

	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Page %d of %d · %d results\n\n", v.CurrentPage, v.TotalPages, v.TotalItems)
}

func printProduct(w io.Writer, p *models.Product) {
	rating := "-"
	if p.Rating != nil {
		rating = fmt.Sprintf("%.2f★ (%d reviews)", *p.Rating, p.Reviews)
	}

	fmt.Fprintf(w, "\n\033[1;33m  %s\033[0m\n", p.Name)
	fmt.Fprintf(w, "  ID:       %s\n", p.ID)
	fmt.Fprintf(w, "  Category: %s\n", p.Category)
	fmt.Fprintf(w, "  Price:    %s\n", p.Price)
	fmt.Fprintf(w, "  Rating:   %s\n", rating)
	if p.Description != "" {
		fmt.Fprintf(w, "  %s\n", p.Description)
	}
	fmt.Fprintln(w)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
