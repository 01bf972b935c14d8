// Package storefront loads a catalog by rendering a storefront's listing
// pages in headless Chrome and reading the product cards.
package storefront

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-faster/errors"

	"product-discovery/config"
	"product-discovery/models"
	"product-discovery/utils"
)

const source = "storefront"

// card is what the in-page extractor returns for each product tile.
type card struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Rating   string `json:"rating"`
	Reviews  string `json:"reviews"`
	Image    string `json:"image"`
	URL      string `json:"url"`
}

// extractCardsJS finds product tiles by the usual markup (data attributes,
// schema.org microdata, generic card classes) and reads their fields.
const extractCardsJS = `
(function() {
	var selectors = [
		'[data-product-id]',
		'[itemtype*="schema.org/Product"]',
		'[data-testid="product-card"]',
		'.product-card',
		'li.product'
	];
	var tiles = [];
	for (var s = 0; s < selectors.length; s++) {
		tiles = document.querySelectorAll(selectors[s]);
		if (tiles.length > 0) break;
	}

	function text(root, sels) {
		for (var i = 0; i < sels.length; i++) {
			var el = root.querySelector(sels[i]);
			if (!el) continue;
			var v = el.getAttribute('content') || el.innerText || '';
			if (v.trim()) return v.trim();
		}
		return '';
	}

	var out = [];
	for (var i = 0; i < tiles.length; i++) {
		var t = tiles[i];
		var link = t.querySelector('a[href]');
		var img = t.querySelector('img');
		out.push({
			id:       t.getAttribute('data-product-id') || text(t, ['[itemprop="sku"]', '[itemprop="productID"]']),
			name:     text(t, ['[itemprop="name"]', '[data-testid="product-name"]', '.product-name', 'h2', 'h3']),
			price:    text(t, ['[itemprop="price"]', '[data-testid="product-price"]', '.price']),
			category: t.getAttribute('data-category') || text(t, ['[itemprop="category"]', '.product-category']),
			rating:   text(t, ['[itemprop="ratingValue"]', '.rating']),
			reviews:  text(t, ['[itemprop="reviewCount"]', '.reviews']),
			image:    img ? (img.currentSrc || img.src || '') : '',
			url:      link ? link.href : ''
		});
	}
	return out;
})()
`

// Scraper reads a catalog from a storefront's paginated listing.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	pool   *utils.WorkerPool
	seen   *utils.KeySet
	retry  *utils.RetryConfig

	mu       sync.Mutex
	products map[int][]*models.RawProduct
}

// New creates a storefront Scraper from config.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, time.Duration(cfg.RateLimitMs)*time.Millisecond),
		seen:   utils.NewKeySet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		products: make(map[int][]*models.RawProduct),
	}
}

// Load renders every configured listing page and returns the products in
// page order, dropping repeats.
func (s *Scraper) Load(ctx context.Context) ([]*models.RawProduct, error) {
	if s.cfg.StorefrontURL == "" {
		return nil, errors.New("storefront: STOREFRONT_URL is not set")
	}
	pages := s.cfg.StorefrontPages
	if pages < 1 {
		pages = 1
	}

	s.logger.Info("[storefront] Loading %d page(s) from %s", pages, s.cfg.StorefrontURL)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(s.cfg.ChromeBin)...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// start the browser once so page tabs share it
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, errors.Wrap(err, "storefront: start browser")
	}

	for page := 1; page <= pages; page++ {
		page := page
		s.pool.Submit(func() error {
			return s.scrapePage(browserCtx, page)
		})
	}
	if err := s.pool.Wait(); err != nil {
		s.logger.Warn("[storefront] Some pages failed: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.RawProduct
	for page := 1; page <= pages; page++ {
		for _, p := range s.products[page] {
			if !s.seen.Add(dedupeKey(p)) {
				s.logger.Debug("[storefront] Skipping duplicate: %s", dedupeKey(p))
				continue
			}
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		return nil, errors.New("storefront: no products found")
	}
	s.logger.Info("[storefront] Collected %d products", len(out))
	return out, nil
}

func (s *Scraper) Close() error { return nil }

func (s *Scraper) scrapePage(browserCtx context.Context, page int) error {
	pageURL, err := PageURL(s.cfg.StorefrontURL, page)
	if err != nil {
		return err
	}

	return s.retry.Do(browserCtx, fmt.Sprintf("storefront-page-%d", page), func(ctx context.Context) error {
		tabCtx, cancel := chromedp.NewContext(ctx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		var cards []card
		err := chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(2*time.Second),

			// Scroll to trigger lazy-loaded tiles
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(1*time.Second),

			chromedp.Evaluate(extractCardsJS, &cards),
		)
		if err != nil {
			return errors.Wrapf(err, "storefront: page %d", page)
		}

		s.logger.Debug("[storefront] Page %d — found %d cards", page, len(cards))

		products := make([]*models.RawProduct, 0, len(cards))
		for _, c := range cards {
			if p := c.toRaw(); p != nil {
				products = append(products, p)
			}
		}

		s.mu.Lock()
		s.products[page] = products
		s.mu.Unlock()
		return nil
	})
}

// toRaw converts a card into a RawProduct; cards with neither a name nor a
// price are layout noise and are dropped.
func (c card) toRaw() *models.RawProduct {
	name := strings.TrimSpace(c.Name)
	price := strings.TrimSpace(c.Price)
	if name == "" && price == "" {
		return nil
	}

	id := strings.TrimSpace(c.ID)
	if id == "" {
		id = idFromURL(c.URL)
	}

	return &models.RawProduct{
		ID:       id,
		Name:     name,
		RawPrice: price,
		Category: c.Category,
		Rating:   c.Rating,
		Reviews:  c.Reviews,
		Image:    c.Image,
		Source:   source,
	}
}

// PageURL sets the page query parameter on the listing URL. Page 1 is the
// URL as configured.
func PageURL(base string, page int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrapf(err, "storefront: parse url %q", base)
	}
	if page > 1 {
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// idFromURL uses the last path segment of a product link as its ID.
func idFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Path == "" {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	return segments[len(segments)-1]
}

func dedupeKey(p *models.RawProduct) string {
	if p.ID != "" {
		return "id:" + p.ID
	}
	return "name:" + strings.ToLower(p.Name) + "|" + p.RawPrice
}

func allocatorOptions(chromeBin string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if bin := findChromeBinary(chromeBin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}
	return opts
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the configured one.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
