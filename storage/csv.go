package storage

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-faster/errors"

	"product-discovery/models"
)

var csvHeader = []string{"id", "name", "price", "category", "rating", "reviews", "image", "description"}

// CSVReader loads a catalog from a CSV file with a header row. Columns are
// matched by header name, so their order and any extra columns don't matter.
// Only "name" and "price" are required.
type CSVReader struct {
	path string
}

func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path}
}

func (r *CSVReader) Load(ctx context.Context) ([]*models.RawProduct, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, errors.Wrapf(err, "csv: open %q", r.path)
	}
	defer f.Close()

	return readCSV(ctx, f, r.path)
}

func (r *CSVReader) Close() error { return nil }

func readCSV(ctx context.Context, in io.Reader, source string) ([]*models.RawProduct, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "csv: read header")
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "price"} {
		if _, ok := cols[required]; !ok {
			return nil, errors.Errorf("csv: missing %q column", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var products []*models.RawProduct
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "csv: read line %d", line)
		}

		products = append(products, &models.RawProduct{
			ID:          field(row, "id"),
			Name:        field(row, "name"),
			RawPrice:    field(row, "price"),
			Category:    field(row, "category"),
			Rating:      field(row, "rating"),
			Reviews:     field(row, "reviews"),
			Image:       field(row, "image"),
			Description: field(row, "description"),
			Source:      source,
		})
	}
	return products, nil
}

// CSVWriter writes cleaned products to a CSV file in the layout CSVReader
// understands. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "csv: create output dir")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "csv: create file %q", path)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "csv: write header")
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteProducts appends one row per product.
func (c *CSVWriter) WriteProducts(products []*models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range products {
		if err := c.writer.Write(productRow(p)); err != nil {
			return errors.Wrap(err, "csv: write row")
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	return c.file.Close()
}

func productRow(p *models.Product) []string {
	rating := ""
	if p.Rating != nil {
		rating = strconv.FormatFloat(*p.Rating, 'f', -1, 64)
	}
	return []string{
		p.ID,
		p.Name,
		p.Price.String(),
		p.Category,
		rating,
		strconv.Itoa(p.Reviews),
		p.Image,
		p.Description,
	}
}
