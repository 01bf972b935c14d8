package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"product-discovery/models"
)

func TestMemoryCatalogDefaultsToDemo(t *testing.T) {
	src := NewMemoryCatalog(nil)
	defer src.Close()

	raw, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(raw) != 6 {
		t.Fatalf("expected 6 demo products, got %d", len(raw))
	}

	raw[0].Name = "changed"
	again, _ := src.Load(context.Background())
	if again[0].Name != "Minimalist Watch" {
		t.Errorf("Load leaked its backing records: got %q", again[0].Name)
	}
}

func TestMemoryCatalogHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewMemoryCatalog(nil).Load(ctx); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}

func TestReadCSVMatchesColumnsByHeader(t *testing.T) {
	in := strings.NewReader(
		"Price,Name,Category,extra,rating\n" +
			"\"$1,200.00\",Road Bike,Outdoors,x,4.7\n" +
			"$35,T-Shirt,Apparel,y\n")

	raw, err := readCSV(context.Background(), in, "test.csv")
	if err != nil {
		t.Fatalf("readCSV: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(raw))
	}
	if raw[0].RawPrice != "$1,200.00" || raw[0].Name != "Road Bike" || raw[0].Rating != "4.7" {
		t.Errorf("row 1: got %+v", raw[0])
	}
	if raw[1].Rating != "" || raw[1].ID != "" {
		t.Errorf("row 2: short rows should leave missing fields empty, got %+v", raw[1])
	}
	if raw[1].Source != "test.csv" {
		t.Errorf("Source: got %q", raw[1].Source)
	}
}

func TestReadCSVRequiresNameAndPrice(t *testing.T) {
	_, err := readCSV(context.Background(), strings.NewReader("id,name\n1,Watch\n"), "bad.csv")
	if err == nil || !strings.Contains(err.Error(), "price") {
		t.Errorf("expected missing price column error, got %v", err)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "catalog.csv")
	r := 4.5

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	products := []*models.Product{
		{ID: "1", Name: "Watch", Price: models.DisplayPrice("$120.00"), Category: "Accessories", Rating: &r, Reviews: 12},
		{ID: "2", Name: "Speaker", Price: models.NumericPrice(99), Category: "Electronics"},
	}
	if err := w.WriteProducts(products); err != nil {
		t.Fatalf("WriteProducts: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := NewCSVReader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(raw))
	}
	if raw[0].RawPrice != "$120.00" || raw[0].Rating != "4.5" || raw[0].Reviews != "12" {
		t.Errorf("row 1: got %+v", raw[0])
	}
	if raw[1].RawPrice != "99.00" || raw[1].Rating != "" {
		t.Errorf("row 2: got %+v", raw[1])
	}
}

func TestCSVReaderMissingFile(t *testing.T) {
	_, err := NewCSVReader(filepath.Join(t.TempDir(), "nope.csv")).Load(context.Background())
	if err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestInsertBatchPlaceholders(t *testing.T) {
	r := 4.2
	query, args := insertBatch([]*models.Product{
		{ID: "a", Name: "A", Price: models.DisplayPrice("$10")},
		{ID: "b", Name: "B", Price: models.NumericPrice(20), Rating: &r},
	}, 50)

	if len(args) != 2*insertColumns {
		t.Fatalf("args: got %d, want %d", len(args), 2*insertColumns)
	}
	if !strings.Contains(query, "($1,$2,$3,$4,$5,$6,$7,$8,$9,$10),($11,") {
		t.Errorf("unexpected placeholders in %s", query)
	}
	if args[1] != 50 || args[insertColumns+1] != 51 {
		t.Errorf("positions: got %v and %v, want 50 and 51", args[1], args[insertColumns+1])
	}
}

func TestProductRecordRaw(t *testing.T) {
	r := 4.85
	raw := productRecord{ID: "7", Name: "Lamp", Price: 42.5, Rating: &r, Reviews: 3}.raw()

	if raw.RawPrice != "42.50" {
		t.Errorf("RawPrice: got %q, want 42.50", raw.RawPrice)
	}
	if raw.Rating != "4.85" || raw.Reviews != "3" || raw.Source != "postgres" {
		t.Errorf("got %+v", raw)
	}

	withDisplay := productRecord{ID: "8", DisplayPrice: "$42.50", Price: 42.5}.raw()
	if withDisplay.RawPrice != "$42.50" || withDisplay.Rating != "" {
		t.Errorf("got %+v", withDisplay)
	}
}
