//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package transform

import (
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/model"
)

// Result is the output of the transform stage.
type Result struct {
	Sales     []model.SalesRecord
	Customers []model.CustomerRecord
	Products  []model.ProductRecord
	Dates     []model.DateDimensionRow

	// Reports holds the cleaning report for sales, customers and products,
	// in that order.
	Reports []CleanReport
}

// All cleans every record set and builds the date dimension from the
// cleaned sales. The input dataset is not modified.
func All(ds *model.Dataset) *Result {
	sales, salesReport := CleanSales(ds.Sales)
	customers, customersReport := CleanCustomers(ds.Customers)
	products, productsReport := CleanProducts(ds.Products)
	dates := BuildDateDimension(sales)

	logging.Stage(logging.StageTransform).Info().
		Int("dates", len(dates)).
		Msg("Built date dimension")

	return &Result{
		Sales:     sales,
		Customers: customers,
		Products:  products,
		Dates:     dates,
		Reports:   []CleanReport{salesReport, customersReport, productsReport},
	}
}
