package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"product-discovery/models"
	"product-discovery/utils"
)

var (
	// ratingRegexp captures a numeric rating in the 0.0–5.0 range
	ratingRegexp = regexp.MustCompile(`(?:^|[^\d.])([0-5](?:\.\d{1,2})?)(?:[^\d.]|$)`)
	// reviewsRegexp captures a review count such as "(1,204 reviews)"
	reviewsRegexp = regexp.MustCompile(`[\d,]+`)
)

// Cleaner turns RawProducts from any catalog source into Products the
// engine can work with.
type Cleaner struct {
	logger *utils.Logger
	newID  func() string
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger, newID: uuid.NewString}
}

// Clean normalises raw products, preserving their order. Products without
// an ID get a generated one; later duplicates of an ID are dropped.
func (c *Cleaner) Clean(raw []*models.RawProduct) []*models.Product {
	seen := make(map[string]struct{})
	result := make([]*models.Product, 0, len(raw))

	for _, r := range raw {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			id = c.newID()
			c.logger.Debug("[cleaner] Assigned ID %s to %q", id, r.Name)
		}

		if _, dup := seen[id]; dup {
			c.logger.Warn("[cleaner] Duplicate product ID skipped: %s", id)
			continue
		}
		seen[id] = struct{}{}

		result = append(result, &models.Product{
			ID:          id,
			Name:        normaliseText(r.Name),
			Price:       c.parsePrice(r.RawPrice),
			Category:    normaliseText(r.Category),
			Rating:      c.parseRating(r.Rating),
			Reviews:     parseReviews(r.Reviews),
			Image:       strings.TrimSpace(r.Image),
			Description: normaliseText(r.Description),
		})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d products (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// parsePrice keeps the raw text for display and normalises the amount.
//
//	"$120.00" → 120
//	"€1,299"  → 1299
//	"N/A"     → 0
func (c *Cleaner) parsePrice(raw string) models.Price {
	raw = strings.TrimSpace(raw)
	p := models.DisplayPrice(raw)
	if p.Value() == 0 && raw != "" {
		c.logger.Debug("[cleaner] Price %q normalised to 0", raw)
	}
	return p
}

// parseRating extracts a 0.0–5.0 rating. Anything else means "not rated".
func (c *Cleaner) parseRating(raw string) *float64 {
	match := ratingRegexp.FindStringSubmatch(raw)
	if len(match) < 2 {
		return nil
	}
	val, err := strconv.ParseFloat(match[1], 64)
	if err != nil || val < 0 || val > 5 {
		return nil
	}
	return &val
}

func parseReviews(raw string) int {
	match := reviewsRegexp.FindString(raw)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// FindProduct returns the product with the given ID, or nil.
func FindProduct(catalog []*models.Product, id string) *models.Product {
	for _, p := range catalog {
		if p.ID == id {
			return p
		}
	}
	return nil
}
