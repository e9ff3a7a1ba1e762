//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/pgEdge/pgedge-salesdw/internal/model"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Conflict clauses. Customer and product attributes are last-writer-wins,
// calendar rows are immutable, and facts only ever change their measures.
const (
	customerConflict = `ON CONFLICT (customer_id) DO UPDATE SET
    customer_name = EXCLUDED.customer_name,
    email = EXCLUDED.email,
    city = EXCLUDED.city,
    country = EXCLUDED.country,
    updated_at = CURRENT_TIMESTAMP`

	productConflict = `ON CONFLICT (product_id) DO UPDATE SET
    product_name = EXCLUDED.product_name,
    category = EXCLUDED.category,
    subcategory = EXCLUDED.subcategory,
    unit_cost = EXCLUDED.unit_cost,
    updated_at = CURRENT_TIMESTAMP`

	dateConflict = `ON CONFLICT (sale_date) DO NOTHING`

	factConflict = `ON CONFLICT (sale_id) DO UPDATE SET
    quantity = EXCLUDED.quantity,
    unit_price = EXCLUDED.unit_price,
    total_amount = EXCLUDED.total_amount,
    updated_at = CURRENT_TIMESTAMP`
)

func upsertCustomers(rows []model.CustomerRecord) (string, []any, error) {
	q := psql.Insert(TableDimCustomer).
		Columns("customer_id", "customer_name", "email", "city", "country")
	for _, r := range rows {
		q = q.Values(r.CustomerID, r.CustomerName, r.Email, r.City, r.Country)
	}
	return q.Suffix(customerConflict).ToSql()
}

func upsertProducts(rows []model.ProductRecord) (string, []any, error) {
	q := psql.Insert(TableDimProduct).
		Columns("product_id", "product_name", "category", "subcategory", "unit_cost")
	for _, r := range rows {
		q = q.Values(r.ProductID, r.ProductName, r.Category, r.Subcategory, r.UnitCost)
	}
	return q.Suffix(productConflict).ToSql()
}

func insertDates(rows []model.DateDimensionRow) (string, []any, error) {
	q := psql.Insert(TableDimDate).
		Columns("sale_date", "day", "month", "quarter", "year",
			"month_name", "quarter_name", "day_of_week", "is_weekend")
	for _, r := range rows {
		q = q.Values(r.SaleDate, r.Day, r.Month, r.Quarter, r.Year,
			r.MonthName, r.QuarterName, r.DayOfWeek, r.IsWeekend)
	}
	return q.Suffix(dateConflict).ToSql()
}

func upsertFacts(rows []model.FactSalesRecord) (string, []any, error) {
	q := psql.Insert(TableFactSales).
		Columns("sale_id", "date_key", "customer_key", "product_key",
			"quantity", "unit_price", "total_amount")
	for _, r := range rows {
		q = q.Values(r.SaleID, r.DateKey, r.CustomerKey, r.ProductKey,
			r.Quantity, r.UnitPrice, r.TotalAmount)
	}
	return q.Suffix(factConflict).ToSql()
}

// chunks splits rows into consecutive slices of at most size elements.
func chunks[T any](rows []T, size int) [][]T {
	if size < 1 {
		size = len(rows)
	}
	var out [][]T
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}
