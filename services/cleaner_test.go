package services

import (
	"testing"

	"product-discovery/models"
	"product-discovery/utils"
)

func newTestLogger() *utils.Logger { return utils.Discard() }

func TestCleanerParsePrice(t *testing.T) {
	c := NewCleaner(newTestLogger())

	tests := []struct {
		raw  string
		want float64
	}{
		{"$120.00", 120},
		{"฿3,500", 3500},
		{"", 0},
		{"free", 0},
		{"$1,200.50", 1200.50},
		{"USD 99", 99},
		{"1.2.3", 1.2},
		{" $35 ", 35},
	}

	for _, tt := range tests {
		got := c.parsePrice(tt.raw)
		if got.Value() != tt.want {
			t.Errorf("parsePrice(%q) = %.2f; want %.2f", tt.raw, got.Value(), tt.want)
		}
	}
}

func TestCleanerParseRating(t *testing.T) {
	c := NewCleaner(newTestLogger())

	tests := []struct {
		raw   string
		want  float64
		rated bool
	}{
		{"4.85", 4.85, true},
		{"5.0", 5.0, true},
		{"3.5 (120 reviews)", 3.5, true},
		{"Rated 4.2 stars", 4.2, true},
		{"0", 0, true},
		{"", 0, false},
		{"New", 0, false},
		{"6.0", 0, false},
	}

	for _, tt := range tests {
		got := c.parseRating(tt.raw)
		if (got != nil) != tt.rated {
			t.Errorf("parseRating(%q) rated = %v; want %v", tt.raw, got != nil, tt.rated)
			continue
		}
		if got != nil && *got != tt.want {
			t.Errorf("parseRating(%q) = %.2f; want %.2f", tt.raw, *got, tt.want)
		}
	}
}

func TestCleanerAssignsMissingIDs(t *testing.T) {
	c := NewCleaner(newTestLogger())
	n := 0
	c.newID = func() string {
		n++
		return "gen-" + string(rune('0'+n))
	}

	cleaned := c.Clean([]*models.RawProduct{
		{Name: "No ID", RawPrice: "$10"},
		{ID: " 7 ", Name: "Has ID", RawPrice: "$20"},
		{Name: "Also no ID", RawPrice: "$30"},
	})

	if len(cleaned) != 3 {
		t.Fatalf("expected 3 products, got %d", len(cleaned))
	}
	want := []string{"gen-1", "7", "gen-2"}
	for i, p := range cleaned {
		if p.ID != want[i] {
			t.Errorf("product %d ID: got %q, want %q", i, p.ID, want[i])
		}
	}
}

func TestCleanerGeneratesUUIDs(t *testing.T) {
	c := NewCleaner(newTestLogger())

	cleaned := c.Clean([]*models.RawProduct{{Name: "A"}, {Name: "B"}})
	if len(cleaned) != 2 {
		t.Fatalf("expected 2 products, got %d", len(cleaned))
	}
	if cleaned[0].ID == "" || cleaned[0].ID == cleaned[1].ID {
		t.Errorf("expected distinct generated IDs, got %q and %q", cleaned[0].ID, cleaned[1].ID)
	}
}

func TestCleanerDeduplicatesID(t *testing.T) {
	c := NewCleaner(newTestLogger())

	cleaned := c.Clean([]*models.RawProduct{
		{ID: "1", Name: "First"},
		{ID: "1", Name: "Second"},
	})
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 product after deduplication, got %d", len(cleaned))
	}
	if cleaned[0].Name != "First" {
		t.Errorf("kept %q, want the first occurrence", cleaned[0].Name)
	}
}

func TestCleanerNormalisesText(t *testing.T) {
	c := NewCleaner(newTestLogger())

	cleaned := c.Clean([]*models.RawProduct{{
		ID:       "1",
		Name:     "  Smart \t Speaker\n",
		Category: " Electronics ",
		RawPrice: "$99.00",
		Reviews:  "(1,204 reviews)",
	}})

	p := cleaned[0]
	if p.Name != "Smart Speaker" {
		t.Errorf("Name: got %q", p.Name)
	}
	if p.Category != "Electronics" {
		t.Errorf("Category: got %q", p.Category)
	}
	if p.Price.String() != "$99.00" || p.Price.Value() != 99 {
		t.Errorf("Price: got %q / %.2f", p.Price.String(), p.Price.Value())
	}
	if p.Reviews != 1204 {
		t.Errorf("Reviews: got %d, want 1204", p.Reviews)
	}
	if p.Rating != nil {
		t.Errorf("Rating: got %v, want nil", *p.Rating)
	}
}

func TestFindProduct(t *testing.T) {
	catalog := demoCatalog()

	if p := FindProduct(catalog, "5"); p == nil || p.Name != "Smart Speaker" {
		t.Errorf("FindProduct(5): got %+v", p)
	}
	if p := FindProduct(catalog, "missing"); p != nil {
		t.Errorf("FindProduct(missing): got %+v, want nil", p)
	}
}
