//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package model defines the record types that flow through the pipeline.
//
// Raw* types are what the source reader produces: every field is text so
// that nulls and unparseable values survive until the cleaner sees them.
// The typed records are what the cleaner emits and the warehouse consumes.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical text form of a calendar date.
const DateLayout = "2006-01-02"

// RawSale is one sales.csv row as read from disk.
type RawSale struct {
	SaleID      string `csv:"sale_id"`
	SaleDate    string `csv:"sale_date"`
	CustomerID  string `csv:"customer_id"`
	ProductID   string `csv:"product_id"`
	Quantity    string `csv:"quantity"`
	UnitPrice   string `csv:"unit_price"`
	TotalAmount string `csv:"total_amount"`
}

// Key returns the deduplication key.
func (r RawSale) Key() string { return r.SaleID }

// Fields returns every field that must be non-null.
func (r RawSale) Fields() []string {
	return []string{r.SaleID, r.SaleDate, r.CustomerID, r.ProductID,
		r.Quantity, r.UnitPrice, r.TotalAmount}
}

// RawCustomer is one customers.csv row as read from disk.
type RawCustomer struct {
	CustomerID   string `csv:"customer_id"`
	CustomerName string `csv:"customer_name"`
	Email        string `csv:"email"`
	City         string `csv:"city"`
	Country      string `csv:"country"`
}

// Key returns the deduplication key.
func (r RawCustomer) Key() string { return r.CustomerID }

// Fields returns every field that must be non-null.
func (r RawCustomer) Fields() []string {
	return []string{r.CustomerID, r.CustomerName, r.Email, r.City, r.Country}
}

// RawProduct is one products.csv row as read from disk.
type RawProduct struct {
	ProductID   string `csv:"product_id"`
	ProductName string `csv:"product_name"`
	Category    string `csv:"category"`
	Subcategory string `csv:"subcategory"`
	UnitCost    string `csv:"unit_cost"`
}

// Key returns the deduplication key.
func (r RawProduct) Key() string { return r.ProductID }

// Fields returns every field that must be non-null. UnitCost is optional
// and falls back to zero, so it is not listed.
func (r RawProduct) Fields() []string {
	return []string{r.ProductID, r.ProductName, r.Category, r.Subcategory}
}

// SalesRecord is a cleaned sales transaction keyed by natural ids.
type SalesRecord struct {
	SaleID      int64
	SaleDate    time.Time
	CustomerID  int64
	ProductID   int64
	Quantity    int64
	UnitPrice   decimal.Decimal
	TotalAmount decimal.Decimal
}

// CustomerRecord is a cleaned customer dimension row.
type CustomerRecord struct {
	CustomerID   int64
	CustomerName string
	Email        string
	City         string
	Country      string
}

// ProductRecord is a cleaned product dimension row.
type ProductRecord struct {
	ProductID   int64
	ProductName string
	Category    string
	Subcategory string
	UnitCost    decimal.Decimal
}

// DateDimensionRow holds the calendar attributes of one sale date.
type DateDimensionRow struct {
	SaleDate    time.Time
	Day         int
	Month       int
	Quarter     int
	Year        int
	MonthName   string
	QuarterName string
	DayOfWeek   string
	IsWeekend   bool
}

// FactSalesRecord is a sale whose natural keys have been replaced by
// warehouse surrogate keys.
type FactSalesRecord struct {
	SaleID      int64
	DateKey     int64
	CustomerKey int64
	ProductKey  int64
	Quantity    int64
	UnitPrice   decimal.Decimal
	TotalAmount decimal.Decimal
}

// RejectedSale records a sale dropped because a dimension lookup missed.
type RejectedSale struct {
	SaleID int64

	// Missing names the lookups that failed: "date", "customer", "product".
	Missing []string
}

// Dataset is the raw output of extraction.
type Dataset struct {
	Sales     []RawSale
	Customers []RawCustomer
	Products  []RawProduct
}

// DateKey formats a date the way lookups and the date dimension key it.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
