package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"product-discovery/config"
	"product-discovery/services"
	"product-discovery/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		PageSize:      9,
		CatalogSource: config.SourceDemo,
		LogLevel:      "error",
	}
}

func runArgs(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(testConfig())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestRunDemoCatalog(t *testing.T) {
	out := runArgs(t)

	if !strings.Contains(out, "Page 1 of 1 · 6 results") {
		t.Errorf("missing paging summary in:\n%s", out)
	}
	if strings.Index(out, "Cotton T-Shirt") > strings.Index(out, "Wireless Headphones") {
		t.Errorf("expected price-asc order in:\n%s", out)
	}
}

func TestRunFiltersInPipelineOrder(t *testing.T) {
	out := runArgs(t, "--category", "Electronics", "--max", "100")

	if !strings.Contains(out, "Smart Speaker") {
		t.Errorf("expected Smart Speaker in:\n%s", out)
	}
	if strings.Contains(out, "Wireless Headphones") || strings.Contains(out, "Cotton T-Shirt") {
		t.Errorf("unexpected products in:\n%s", out)
	}
	if !strings.Contains(out, "1 results") {
		t.Errorf("expected one result in:\n%s", out)
	}
}

func TestRunPagination(t *testing.T) {
	out := runArgs(t, "--page-size", "4", "--page", "2", "--sort", "price-desc")

	if !strings.Contains(out, "Page 2 of 2 · 6 results") {
		t.Errorf("missing paging summary in:\n%s", out)
	}
	if !strings.Contains(out, "Smart Speaker") || !strings.Contains(out, "Cotton T-Shirt") {
		t.Errorf("expected the two cheapest products on page 2 in:\n%s", out)
	}
}

func TestRunRejectsUnknownSort(t *testing.T) {
	cmd := newRootCmd(testConfig())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--sort", "newest"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for an unknown sort key")
	}
}

func TestRunShowsProductByID(t *testing.T) {
	out := runArgs(t, "--id", "5")

	if !strings.Contains(out, "Smart Speaker") || !strings.Contains(out, "Category: Electronics") {
		t.Errorf("expected product 5 in:\n%s", out)
	}
	if strings.Contains(out, "Page 1 of") {
		t.Errorf("expected a single product, not the grid, in:\n%s", out)
	}
}

func TestRunRejectsUnknownID(t *testing.T) {
	cmd := newRootCmd(testConfig())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--id", "404"})

	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected a missing product error, got %v", err)
	}
}

func TestRunExportAndInsights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	out := runArgs(t, "--page-size", "2", "--export", path, "--insights")

	if !strings.Contains(out, "CATALOG INSIGHTS") {
		t.Errorf("expected insights in:\n%s", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 7 {
		t.Errorf("export lines: got %d, want header + 6", len(lines))
	}
}

func TestExecuteExitCode(t *testing.T) {
	if code := execute(testConfig(), []string{"--id", "5"}); code != 0 {
		t.Errorf("valid run: got exit code %d, want 0", code)
	}
	if code := execute(testConfig(), []string{"--sort", "newest"}); code != 1 {
		t.Errorf("invalid sort: got exit code %d, want 1", code)
	}
}

func TestAllResultsRestoresPage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	catalog, err := loadCatalog(ctx, testConfig(), &options{source: config.SourceDemo}, testLogger())
	if err != nil {
		t.Fatalf("loadCatalog: %v", err)
	}
	engine, err := services.NewEngine(catalog, 4, testLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	engine.GoToPage(2)

	if got := len(allResults(engine)); got != 6 {
		t.Errorf("allResults: got %d, want 6", got)
	}
	if engine.CurrentPage() != 2 {
		t.Errorf("CurrentPage: got %d, want 2", engine.CurrentPage())
	}
}

func testLogger() *utils.Logger { return utils.Discard() }
