//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package transform cleans raw record sets and derives the date dimension.
package transform

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/model"
)

// Keyed is a raw row with a natural key and a set of required fields.
type Keyed interface {
	Key() string
	Fields() []string
}

// CleanReport counts what the cleaner removed from one record set.
type CleanReport struct {
	Entity string

	Input      int
	Duplicates int
	Missing    int

	// Invalid counts rows dropped because a numeric or date field could
	// not be parsed.
	Invalid int

	// NonPositive counts sales dropped for a zero or negative measure.
	NonPositive int

	// Defaulted counts products whose unit cost fell back to zero.
	Defaulted int

	Output int
}

// Removed returns the total number of rows dropped.
func (r CleanReport) Removed() int {
	return r.Duplicates + r.Missing + r.Invalid + r.NonPositive
}

func (r CleanReport) log() {
	logging.Stage(logging.StageTransform).Info().
		Str("entity", r.Entity).
		Int("input", r.Input).
		Int("duplicates", r.Duplicates).
		Int("missing", r.Missing).
		Int("invalid", r.Invalid).
		Int("non_positive", r.NonPositive).
		Int("defaulted", r.Defaulted).
		Int("output", r.Output).
		Msg("Cleaned records")
}

// nullTokens are the cell values treated as missing, matching what common
// CSV tooling writes for NULL.
var nullTokens = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true,
	"-1.#QNAN": true, "-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true,
	"<NA>": true, "N/A": true, "NA": true, "NULL": true, "NaN": true,
	"None": true, "n/a": true, "nan": true, "null": true,
}

// IsNull reports whether a raw cell holds no value.
func IsNull(s string) bool {
	return nullTokens[strings.TrimSpace(s)]
}

// Dedup keeps the first row for every natural key. Rows with a null key
// are passed through for the null filter to remove.
func Dedup[T Keyed](rows []T) ([]T, int) {
	seen := make(map[string]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		raw := row.Key()
		if IsNull(raw) {
			out = append(out, row)
			continue
		}
		key := canonicalKey(raw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out, len(rows) - len(out)
}

// DropNulls removes rows with any null required field.
func DropNulls[T Keyed](rows []T) ([]T, int) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if hasNull(row.Fields()) {
			continue
		}
		out = append(out, row)
	}
	return out, len(rows) - len(out)
}

func hasNull(fields []string) bool {
	for _, f := range fields {
		if IsNull(f) {
			return true
		}
	}
	return false
}

// canonicalKey makes "7", " 7" and "7.0" collide.
func canonicalKey(s string) string {
	s = strings.TrimSpace(s)
	if id, ok := parseInt(s); ok {
		return strconv.FormatInt(id, 10)
	}
	return s
}

// parseInt accepts plain integers and integral decimals such as "3.0".
// Values outside the int64 range are rejected.
func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	if n := d.BigInt(); !n.IsInt64() {
		return 0, false
	}
	return d.IntPart(), true
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// dateLayouts are tried in order when parsing sale_date.
var dateLayouts = []string{
	model.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// parseDate returns the calendar date at UTC midnight. Any time of day is
// discarded.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// CleanSales dedups on sale_id, drops nulls, coerces types and removes
// rows whose quantity, unit_price or total_amount is not positive.
func CleanSales(raw []model.RawSale) ([]model.SalesRecord, CleanReport) {
	report := CleanReport{Entity: "sales", Input: len(raw)}

	rows, dups := Dedup(raw)
	report.Duplicates = dups
	rows, missing := DropNulls(rows)
	report.Missing = missing

	out := make([]model.SalesRecord, 0, len(rows))
	for _, r := range rows {
		rec, ok := parseSale(r)
		if !ok {
			report.Invalid++
			continue
		}
		if rec.Quantity <= 0 || !rec.UnitPrice.IsPositive() || !rec.TotalAmount.IsPositive() {
			report.NonPositive++
			continue
		}
		out = append(out, rec)
	}

	report.Output = len(out)
	report.log()
	return out, report
}

func parseSale(r model.RawSale) (model.SalesRecord, bool) {
	var (
		rec model.SalesRecord
		ok  bool
	)
	if rec.SaleID, ok = parseInt(r.SaleID); !ok {
		return rec, false
	}
	if rec.SaleDate, ok = parseDate(r.SaleDate); !ok {
		return rec, false
	}
	if rec.CustomerID, ok = parseInt(r.CustomerID); !ok {
		return rec, false
	}
	if rec.ProductID, ok = parseInt(r.ProductID); !ok {
		return rec, false
	}
	if rec.Quantity, ok = parseInt(r.Quantity); !ok {
		return rec, false
	}
	if rec.UnitPrice, ok = parseDecimal(r.UnitPrice); !ok {
		return rec, false
	}
	if rec.TotalAmount, ok = parseDecimal(r.TotalAmount); !ok {
		return rec, false
	}
	return rec, true
}

// CleanCustomers dedups on customer_id, drops nulls and requires an
// integer id.
func CleanCustomers(raw []model.RawCustomer) ([]model.CustomerRecord, CleanReport) {
	report := CleanReport{Entity: "customers", Input: len(raw)}

	rows, dups := Dedup(raw)
	report.Duplicates = dups
	rows, missing := DropNulls(rows)
	report.Missing = missing

	out := make([]model.CustomerRecord, 0, len(rows))
	for _, r := range rows {
		id, ok := parseInt(r.CustomerID)
		if !ok {
			report.Invalid++
			continue
		}
		out = append(out, model.CustomerRecord{
			CustomerID:   id,
			CustomerName: strings.TrimSpace(r.CustomerName),
			Email:        strings.TrimSpace(r.Email),
			City:         strings.TrimSpace(r.City),
			Country:      strings.TrimSpace(r.Country),
		})
	}

	report.Output = len(out)
	report.log()
	return out, report
}

// CleanProducts dedups on product_id, drops nulls and requires an integer
// id. A missing, unparseable or negative unit_cost becomes zero.
func CleanProducts(raw []model.RawProduct) ([]model.ProductRecord, CleanReport) {
	report := CleanReport{Entity: "products", Input: len(raw)}

	rows, dups := Dedup(raw)
	report.Duplicates = dups
	rows, missing := DropNulls(rows)
	report.Missing = missing

	out := make([]model.ProductRecord, 0, len(rows))
	for _, r := range rows {
		id, ok := parseInt(r.ProductID)
		if !ok {
			report.Invalid++
			continue
		}
		cost, ok := parseDecimal(r.UnitCost)
		if !ok || cost.IsNegative() {
			cost = decimal.Zero
			report.Defaulted++
		}
		out = append(out, model.ProductRecord{
			ProductID:   id,
			ProductName: strings.TrimSpace(r.ProductName),
			Category:    strings.TrimSpace(r.Category),
			Subcategory: strings.TrimSpace(r.Subcategory),
			UnitCost:    cost,
		})
	}

	report.Output = len(out)
	report.log()
	return out, report
}
