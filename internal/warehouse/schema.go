//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse writes cleaned records into the sales star schema and
// resolves natural keys to surrogate keys.
package warehouse

import (
	"context"
	"fmt"

	"github.com/pgEdge/pgedge-salesdw/internal/db"
)

// Table names of the star schema.
const (
	TableDimCustomer = "dim_customer"
	TableDimProduct  = "dim_product"
	TableDimDate     = "dim_date"
	TableFactSales   = "fact_sales"
)

// Tables lists the star schema tables in load order.
var Tables = []string{TableDimCustomer, TableDimProduct, TableDimDate, TableFactSales}

// Schema SQL for the sales star schema. The pipeline assumes these tables
// exist; CreateSchema is only called by the schema command.
const createSchemaSQL = `
-- Customer Dimension
CREATE TABLE IF NOT EXISTS dim_customer (
    customer_key  SERIAL PRIMARY KEY,
    customer_id   INTEGER NOT NULL UNIQUE,
    customer_name VARCHAR(100) NOT NULL,
    email         VARCHAR(100),
    city          VARCHAR(50),
    country       VARCHAR(50),
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Product Dimension
CREATE TABLE IF NOT EXISTS dim_product (
    product_key  SERIAL PRIMARY KEY,
    product_id   INTEGER NOT NULL UNIQUE,
    product_name VARCHAR(100) NOT NULL,
    category     VARCHAR(50),
    subcategory  VARCHAR(50),
    unit_cost    NUMERIC(10,2) NOT NULL DEFAULT 0,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Date Dimension
CREATE TABLE IF NOT EXISTS dim_date (
    date_key     SERIAL PRIMARY KEY,
    sale_date    DATE NOT NULL UNIQUE,
    day          INTEGER NOT NULL,
    month        INTEGER NOT NULL,
    quarter      INTEGER NOT NULL CHECK (quarter BETWEEN 1 AND 4),
    year         INTEGER NOT NULL,
    month_name   VARCHAR(10) NOT NULL,
    quarter_name VARCHAR(2) NOT NULL,
    day_of_week  VARCHAR(10) NOT NULL,
    is_weekend   BOOLEAN NOT NULL,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Sales Fact
CREATE TABLE IF NOT EXISTS fact_sales (
    sales_key    SERIAL PRIMARY KEY,
    sale_id      INTEGER NOT NULL UNIQUE,
    date_key     INTEGER NOT NULL REFERENCES dim_date(date_key),
    customer_key INTEGER NOT NULL REFERENCES dim_customer(customer_key),
    product_key  INTEGER NOT NULL REFERENCES dim_product(product_key),
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    unit_price   NUMERIC(10,2) NOT NULL CHECK (unit_price > 0),
    total_amount NUMERIC(12,2) NOT NULL CHECK (total_amount > 0),
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_fact_sales_date ON fact_sales(date_key);
CREATE INDEX IF NOT EXISTS idx_fact_sales_customer ON fact_sales(customer_key);
CREATE INDEX IF NOT EXISTS idx_fact_sales_product ON fact_sales(product_key);
CREATE INDEX IF NOT EXISTS idx_dim_date_year_month ON dim_date(year, month);
CREATE INDEX IF NOT EXISTS idx_dim_product_category ON dim_product(category);
`

const dropSchemaSQL = `
DROP TABLE IF EXISTS fact_sales CASCADE;
DROP TABLE IF EXISTS dim_date CASCADE;
DROP TABLE IF EXISTS dim_product CASCADE;
DROP TABLE IF EXISTS dim_customer CASCADE;
`

// CreateSchema creates the star schema tables and indexes if missing.
func CreateSchema(ctx context.Context, conn db.DB) error {
	if _, err := conn.Exec(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// DropSchema drops the star schema tables.
func DropSchema(ctx context.Context, conn db.DB) error {
	if _, err := conn.Exec(ctx, dropSchemaSQL); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}
