//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package source reads the raw sales, customer and product CSV files.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/model"
)

// File names expected inside the data directory.
const (
	SalesFile     = "sales.csv"
	CustomersFile = "customers.csv"
	ProductsFile  = "products.csv"
)

var (
	// ErrSourceNotFound is returned when an input file does not exist.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrMalformedSource is returned when an input file cannot be parsed
	// as a table with the expected columns.
	ErrMalformedSource = errors.New("malformed source file")
)

var (
	salesColumns = []string{"sale_id", "sale_date", "customer_id", "product_id",
		"quantity", "unit_price", "total_amount"}
	customerColumns = []string{"customer_id", "customer_name", "email", "city", "country"}
	// unit_cost may be absent; the cleaner defaults it to zero.
	productColumns = []string{"product_id", "product_name", "category", "subcategory"}
)

// Reader loads the three record sets from a directory.
type Reader struct {
	dir string
}

// NewReader creates a Reader rooted at dir.
func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// Dir returns the directory the reader loads from.
func (r *Reader) Dir() string {
	return r.dir
}

// Extract reads sales, customers and products, in that order. The first
// missing or malformed file aborts extraction.
func (r *Reader) Extract() (*model.Dataset, error) {
	sales, err := r.Sales()
	if err != nil {
		return nil, err
	}
	customers, err := r.Customers()
	if err != nil {
		return nil, err
	}
	products, err := r.Products()
	if err != nil {
		return nil, err
	}

	return &model.Dataset{
		Sales:     sales,
		Customers: customers,
		Products:  products,
	}, nil
}

// Sales reads sales.csv.
func (r *Reader) Sales() ([]model.RawSale, error) {
	return readTable[model.RawSale](filepath.Join(r.dir, SalesFile), "sales", salesColumns)
}

// Customers reads customers.csv.
func (r *Reader) Customers() ([]model.RawCustomer, error) {
	return readTable[model.RawCustomer](filepath.Join(r.dir, CustomersFile), "customers", customerColumns)
}

// Products reads products.csv.
func (r *Reader) Products() ([]model.RawProduct, error) {
	return readTable[model.RawProduct](filepath.Join(r.dir, ProductsFile), "products", productColumns)
}

func readTable[T any](path, entity string, required []string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s %w: %s", entity, ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := decode[T](f, required)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrMalformedSource, path, err)
	}

	logging.Stage(logging.StageExtract).Info().
		Str("entity", entity).
		Str("path", path).
		Int("rows", len(rows)).
		Msg("Extracted records")

	return rows, nil
}

// decode parses CSV with a header row into T. A leading UTF-8 BOM is
// dropped and every required column must be present in the header. Short
// rows are padded with empty cells; rows wider than the header are an error.
func decode[T any](r io.Reader, required []string) ([]T, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(&paddedReader{r: cr})
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, err
	}

	if missing := missingColumns(dec.Header(), required); len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	var rows []T
	if err := dec.Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return rows, nil
}

// paddedReader widens every record after the header to the header's width
// so a truncated row decodes with empty values instead of failing the file.
type paddedReader struct {
	r     *csv.Reader
	width int
}

func (p *paddedReader) Read() ([]string, error) {
	record, err := p.r.Read()
	if err != nil {
		return nil, err
	}
	if p.width == 0 {
		p.width = len(record)
		return record, nil
	}

	if len(record) > p.width {
		line, _ := p.r.FieldPos(0)
		return nil, fmt.Errorf("record on line %d: expected %d fields, got %d",
			line, p.width, len(record))
	}
	for len(record) < p.width {
		record = append(record, "")
	}
	return record, nil
}

func missingColumns(header, required []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
