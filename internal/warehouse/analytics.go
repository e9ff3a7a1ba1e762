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
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// MonthlyRevenue is one row of the revenue-by-month report.
type MonthlyRevenue struct {
	Year      int
	Month     int
	MonthName string
	Orders    int64
	Units     int64
	Revenue   decimal.Decimal
}

// CategoryRevenue is one row of the revenue-by-category report.
type CategoryRevenue struct {
	Category string
	Orders   int64
	Units    int64
	Revenue  decimal.Decimal
}

// CustomerRevenue is one row of the top customers report.
type CustomerRevenue struct {
	CustomerID   int64
	CustomerName string
	Country      string
	Orders       int64
	Revenue      decimal.Decimal
}

// SalesByMonth aggregates fact_sales by calendar month.
func SalesByMonth(ctx context.Context, q Querier) ([]MonthlyRevenue, error) {
	query := psql.Select("d.year", "d.month", "d.month_name",
		"COUNT(*)", "SUM(f.quantity)", "SUM(f.total_amount)").
		From(TableFactSales + " f").
		Join(TableDimDate + " d ON d.date_key = f.date_key").
		GroupBy("d.year", "d.month", "d.month_name").
		OrderBy("d.year", "d.month")

	return collect(ctx, q, query, func(rows pgx.Rows) (MonthlyRevenue, error) {
		var r MonthlyRevenue
		err := rows.Scan(&r.Year, &r.Month, &r.MonthName, &r.Orders, &r.Units, &r.Revenue)
		return r, err
	})
}

// SalesByCategory aggregates fact_sales by product category, highest
// revenue first.
func SalesByCategory(ctx context.Context, q Querier) ([]CategoryRevenue, error) {
	query := psql.Select("COALESCE(p.category, '')",
		"COUNT(*)", "SUM(f.quantity)", "SUM(f.total_amount)").
		From(TableFactSales + " f").
		Join(TableDimProduct + " p ON p.product_key = f.product_key").
		GroupBy("p.category").
		OrderBy("SUM(f.total_amount) DESC", "1")

	return collect(ctx, q, query, func(rows pgx.Rows) (CategoryRevenue, error) {
		var r CategoryRevenue
		err := rows.Scan(&r.Category, &r.Orders, &r.Units, &r.Revenue)
		return r, err
	})
}

// TopCustomers returns the limit customers with the highest revenue.
func TopCustomers(ctx context.Context, q Querier, limit int) ([]CustomerRevenue, error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := psql.Select("c.customer_id", "c.customer_name", "COALESCE(c.country, '')",
		"COUNT(*)", "SUM(f.total_amount)").
		From(TableFactSales + " f").
		Join(TableDimCustomer + " c ON c.customer_key = f.customer_key").
		GroupBy("c.customer_id", "c.customer_name", "c.country").
		OrderBy("SUM(f.total_amount) DESC", "c.customer_id").
		Limit(uint64(limit))

	return collect(ctx, q, query, func(rows pgx.Rows) (CustomerRevenue, error) {
		var r CustomerRevenue
		err := rows.Scan(&r.CustomerID, &r.CustomerName, &r.Country, &r.Orders, &r.Revenue)
		return r, err
	})
}

// TableCounts returns the row count of every star schema table.
func TableCounts(ctx context.Context, q Querier) (map[string]int64, error) {
	counts := make(map[string]int64, len(Tables))
	for _, table := range Tables {
		query := psql.Select("COUNT(*)").From(table)
		n, err := collect(ctx, q, query, func(rows pgx.Rows) (int64, error) {
			var n int64
			err := rows.Scan(&n)
			return n, err
		})
		if err != nil {
			return nil, err
		}
		counts[table] = n[0]
	}
	return counts, nil
}

func collect[T any](ctx context.Context, q Querier, query sq.SelectBuilder,
	scan func(pgx.Rows) (T, error)) ([]T, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
