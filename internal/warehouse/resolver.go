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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-salesdw/internal/model"
)

// Querier is satisfied by pgx.Tx, *pgx.Conn and *pgxpool.Pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// KeyLookup maps natural keys to surrogate keys as stored in the warehouse.
type KeyLookup struct {
	// Dates is keyed by model.DateKey of the sale date.
	Dates     map[string]int64
	Customers map[int64]int64
	Products  map[int64]int64
}

// NewKeyLookup returns an empty lookup.
func NewKeyLookup() *KeyLookup {
	return &KeyLookup{
		Dates:     make(map[string]int64),
		Customers: make(map[int64]int64),
		Products:  make(map[int64]int64),
	}
}

// LoadKeyLookup reads every surrogate key from the three dimension tables.
func LoadKeyLookup(ctx context.Context, q Querier) (*KeyLookup, error) {
	keys := NewKeyLookup()

	err := scanPairs(ctx, q, "date_key", "sale_date", TableDimDate, func(rows pgx.Rows) error {
		var key int64
		var date time.Time
		if err := rows.Scan(&key, &date); err != nil {
			return err
		}
		keys.Dates[model.DateKey(date)] = key
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = scanPairs(ctx, q, "customer_key", "customer_id", TableDimCustomer, func(rows pgx.Rows) error {
		var key, id int64
		if err := rows.Scan(&key, &id); err != nil {
			return err
		}
		keys.Customers[id] = key
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = scanPairs(ctx, q, "product_key", "product_id", TableDimProduct, func(rows pgx.Rows) error {
		var key, id int64
		if err := rows.Scan(&key, &id); err != nil {
			return err
		}
		keys.Products[id] = key
		return nil
	})
	if err != nil {
		return nil, err
	}

	return keys, nil
}

func scanPairs(ctx context.Context, q Querier, keyCol, idCol, table string, scan func(pgx.Rows) error) error {
	sqlStr, args, err := psql.Select(keyCol, idCol).From(table).ToSql()
	if err != nil {
		return err
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to read %s keys: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("failed to scan %s key: %w", table, err)
		}
	}
	return rows.Err()
}

// Resolve looks up the three surrogate keys of one sale. The returned
// slice names the lookups that missed and is empty on success.
func (k *KeyLookup) Resolve(s model.SalesRecord) (model.FactSalesRecord, []string) {
	var missing []string

	dateKey, ok := k.Dates[model.DateKey(s.SaleDate)]
	if !ok {
		missing = append(missing, "date")
	}
	customerKey, ok := k.Customers[s.CustomerID]
	if !ok {
		missing = append(missing, "customer")
	}
	productKey, ok := k.Products[s.ProductID]
	if !ok {
		missing = append(missing, "product")
	}

	return model.FactSalesRecord{
		SaleID:      s.SaleID,
		DateKey:     dateKey,
		CustomerKey: customerKey,
		ProductKey:  productKey,
		Quantity:    s.Quantity,
		UnitPrice:   s.UnitPrice,
		TotalAmount: s.TotalAmount,
	}, missing
}

// ResolveFacts converts cleaned sales into fact records. A sale with any
// unresolvable key is never emitted; it is returned as rejected instead.
func ResolveFacts(sales []model.SalesRecord, keys *KeyLookup) ([]model.FactSalesRecord, []model.RejectedSale) {
	facts := make([]model.FactSalesRecord, 0, len(sales))
	var rejected []model.RejectedSale

	for _, s := range sales {
		fact, missing := keys.Resolve(s)
		if len(missing) > 0 {
			rejected = append(rejected, model.RejectedSale{SaleID: s.SaleID, Missing: missing})
			continue
		}
		facts = append(facts, fact)
	}
	return facts, rejected
}
