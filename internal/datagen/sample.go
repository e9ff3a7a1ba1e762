//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-salesdw/internal/config"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/model"
	"github.com/pgEdge/pgedge-salesdw/internal/source"
)

// Sales dates are drawn from this fixed window so that a seed always
// produces the same files.
var (
	salesStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	salesEnd   = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
)

var subcategories = []string{"Standard", "Premium", "Basic", "Deluxe", "Compact"}

// Defect kinds injected into sales rows.
const (
	defectDuplicate   = "duplicate"
	defectBlank       = "blank"
	defectNonPositive = "non_positive"
	defectUnparseable = "unparseable"
	defectDangling    = "dangling"
)

var (
	salesDefects       = []string{defectDuplicate, defectBlank, defectNonPositive, defectUnparseable, defectDangling}
	salesDefectWeights = []int{3, 2, 2, 1, 2}
)

// SampleReport counts what WriteSample produced.
type SampleReport struct {
	Customers int
	Products  int
	Sales     int

	// Defects counts injected defects by kind across all three files.
	Defects map[string]int
}

// WriteSample writes sales.csv, customers.csv and products.csv into dir.
// A fraction cfg.DirtyRatio of rows carries a data quality defect so that
// every cleaning rule and the dimension lookup skip get exercised.
func WriteSample(dir string, cfg config.GenerateConfig) (*SampleReport, error) {
	if cfg.Sales > 0 && (cfg.Customers < 1 || cfg.Products < 1) {
		return nil, fmt.Errorf("sales need at least one customer and one product")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	f := NewFaker()
	if cfg.Seed != 0 {
		f = NewFakerWithSeed(cfg.Seed)
	}

	g := &sampleGen{f: f, cfg: cfg, report: &SampleReport{Defects: make(map[string]int)}}

	customers := g.customers()
	products := g.products()
	sales := g.sales()

	if err := writeCSV(filepath.Join(dir, source.CustomersFile), customers); err != nil {
		return nil, err
	}
	if err := writeCSV(filepath.Join(dir, source.ProductsFile), products); err != nil {
		return nil, err
	}
	if err := writeCSV(filepath.Join(dir, source.SalesFile), sales); err != nil {
		return nil, err
	}

	g.report.Customers = len(customers)
	g.report.Products = len(products)
	g.report.Sales = len(sales)

	logging.Info().
		Str("dir", dir).
		Int("customers", len(customers)).
		Int("products", len(products)).
		Int("sales", len(sales)).
		Interface("defects", g.report.Defects).
		Msg("Wrote sample data")

	return g.report, nil
}

type sampleGen struct {
	f      *Faker
	cfg    config.GenerateConfig
	report *SampleReport
}

func (g *sampleGen) dirty() bool {
	return g.f.Chance(g.cfg.DirtyRatio)
}

func (g *sampleGen) customers() []model.RawCustomer {
	rows := make([]model.RawCustomer, 0, g.cfg.Customers)
	for i := 1; i <= g.cfg.Customers; i++ {
		row := model.RawCustomer{
			CustomerID:   strconv.Itoa(i),
			CustomerName: Truncate(g.f.Name(), 100),
			Email:        Truncate(g.f.Email(), 100),
			City:         Truncate(g.f.City(), 50),
			Country:      Truncate(g.f.Country(), 50),
		}
		rows = append(rows, row)

		// Blank emails make a customer unusable, so only later ids get
		// them and sales can still reference the low ids.
		if i > 1 && g.dirty() {
			if g.f.Chance(0.5) {
				dup := row
				dup.CustomerName = Truncate(g.f.Name(), 100)
				rows = append(rows, dup)
				g.report.Defects["customer_duplicate"]++
			} else {
				rows[len(rows)-1].Email = ""
				g.report.Defects["customer_blank"]++
			}
		}
	}
	return rows
}

func (g *sampleGen) products() []model.RawProduct {
	rows := make([]model.RawProduct, 0, g.cfg.Products)
	for i := 1; i <= g.cfg.Products; i++ {
		row := model.RawProduct{
			ProductID:   strconv.Itoa(i),
			ProductName: Truncate(g.f.ProductName(), 100),
			Category:    Truncate(g.f.ProductCategory(), 50),
			Subcategory: Choose(g.f, subcategories),
			UnitCost:    g.f.Money(1, 200).StringFixed(2),
		}
		if g.dirty() {
			row.UnitCost = ""
			g.report.Defects["product_missing_cost"]++
		}
		rows = append(rows, row)
	}
	return rows
}

func (g *sampleGen) sales() []model.RawSale {
	progress := NewProgressReporter(source.SalesFile, int64(g.cfg.Sales), DefaultProgressInterval)
	defer progress.Done()

	rows := make([]model.RawSale, 0, g.cfg.Sales)
	for i := 1; i <= g.cfg.Sales; i++ {
		qty := g.f.Int(1, 10)
		price := g.f.Money(5, 500)
		row := model.RawSale{
			SaleID:      strconv.Itoa(i),
			SaleDate:    model.DateKey(g.f.DateRange(salesStart, salesEnd)),
			CustomerID:  strconv.Itoa(g.f.Int(1, g.cfg.Customers)),
			ProductID:   strconv.Itoa(g.f.Int(1, g.cfg.Products)),
			Quantity:    strconv.Itoa(qty),
			UnitPrice:   price.StringFixed(2),
			TotalAmount: price.Mul(decimal.NewFromInt(int64(qty))).StringFixed(2),
		}

		if g.dirty() {
			kind := ChooseWeighted(g.f, salesDefects, salesDefectWeights)
			if kind == defectDuplicate && len(rows) == 0 {
				kind = defectBlank
			}
			row = g.spoil(row, kind, rows)
			g.report.Defects["sale_"+kind]++
		}

		rows = append(rows, row)
		progress.Update(1)
	}
	return rows
}

// spoil applies one defect to a sale row.
func (g *sampleGen) spoil(row model.RawSale, kind string, prev []model.RawSale) model.RawSale {
	switch kind {
	case defectDuplicate:
		row.SaleID = prev[len(prev)-1].SaleID
	case defectBlank:
		blanks := []*string{&row.SaleDate, &row.CustomerID, &row.ProductID,
			&row.Quantity, &row.UnitPrice, &row.TotalAmount}
		*Choose(g.f, blanks) = ""
	case defectNonPositive:
		if g.f.Chance(0.5) {
			row.Quantity = "0"
		} else {
			row.TotalAmount = "-" + row.TotalAmount
		}
	case defectUnparseable:
		row.Quantity = g.f.Word()
	case defectDangling:
		row.CustomerID = strconv.Itoa(g.cfg.Customers + g.f.Int(1, 1000))
	}
	return row
}

func writeCSV[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	enc := csvutil.NewEncoder(w)

	var zero T
	if err := enc.EncodeHeader(zero); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
