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
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/model"
)

// ErrDimensionsNotLoaded is returned by LoadFacts when it is not given the
// receipt of a committed dimension load.
var ErrDimensionsNotLoaded = errors.New("dimensions have not been loaded")

// DefaultBatchSize is used when Options.BatchSize is not positive.
const DefaultBatchSize = 1000

// maxParams is the PostgreSQL limit on bind parameters per statement.
const maxParams = 65535

// Options configures a Writer.
type Options struct {
	// BatchSize is the number of rows per multi-row INSERT.
	BatchSize int
}

// Writer upserts cleaned records into the star schema. It holds one
// connection and opens one transaction per entity.
type Writer struct {
	db        db.DB
	batchSize int
}

// NewWriter creates a writer over an open connection.
func NewWriter(conn db.DB, opts Options) *Writer {
	size := opts.BatchSize
	if size < 1 {
		size = DefaultBatchSize
	}
	return &Writer{db: conn, batchSize: size}
}

// DimensionReceipt proves that all three dimension loads committed.
// Only LoadDimensions can produce a valid one.
type DimensionReceipt struct {
	Customers int
	Products  int
	Dates     int

	committed bool
}

// FactReport summarises a fact load.
type FactReport struct {
	// Candidates is the number of cleaned sales offered for loading.
	Candidates int
	Loaded     int
	Rejected   []model.RejectedSale
}

// LoadCustomers upserts the customer dimension in one transaction.
func (w *Writer) LoadCustomers(ctx context.Context, rows []model.CustomerRecord) error {
	return w.load(ctx, TableDimCustomer, 5, len(rows), func(tx pgx.Tx, size int) error {
		return execChunks(ctx, tx, rows, size, upsertCustomers)
	})
}

// LoadProducts upserts the product dimension in one transaction.
func (w *Writer) LoadProducts(ctx context.Context, rows []model.ProductRecord) error {
	return w.load(ctx, TableDimProduct, 5, len(rows), func(tx pgx.Tx, size int) error {
		return execChunks(ctx, tx, rows, size, upsertProducts)
	})
}

// LoadDates inserts calendar rows that do not exist yet. Existing dates are
// left untouched.
func (w *Writer) LoadDates(ctx context.Context, rows []model.DateDimensionRow) error {
	return w.load(ctx, TableDimDate, 9, len(rows), func(tx pgx.Tx, size int) error {
		return execChunks(ctx, tx, rows, size, insertDates)
	})
}

// LoadDimensions loads customers, products and dates in that order, each in
// its own transaction. The first failure aborts the remaining loads.
func (w *Writer) LoadDimensions(ctx context.Context, customers []model.CustomerRecord,
	products []model.ProductRecord, dates []model.DateDimensionRow) (*DimensionReceipt, error) {
	if err := w.LoadCustomers(ctx, customers); err != nil {
		return nil, err
	}
	if err := w.LoadProducts(ctx, products); err != nil {
		return nil, err
	}
	if err := w.LoadDates(ctx, dates); err != nil {
		return nil, err
	}

	return &DimensionReceipt{
		Customers: len(customers),
		Products:  len(products),
		Dates:     len(dates),
		committed: true,
	}, nil
}

// LoadFacts resolves surrogate keys and upserts the fact table in a single
// transaction. Sales whose keys do not all resolve are skipped and reported.
func (w *Writer) LoadFacts(ctx context.Context, receipt *DimensionReceipt,
	sales []model.SalesRecord) (*FactReport, error) {
	if receipt == nil || !receipt.committed {
		return nil, ErrDimensionsNotLoaded
	}

	report := &FactReport{Candidates: len(sales)}

	err := w.inTx(ctx, TableFactSales, func(tx pgx.Tx) error {
		keys, err := LoadKeyLookup(ctx, tx)
		if err != nil {
			return err
		}

		facts, rejected := ResolveFacts(sales, keys)
		report.Rejected = rejected
		if len(rejected) > 0 {
			logging.Stage(logging.StageLoad).Warn().
				Int("skipped", len(rejected)).
				Int64("first_sale_id", rejected[0].SaleID).
				Str("missing", strings.Join(rejected[0].Missing, ",")).
				Msg("Skipped sales with unresolved dimension keys")
		}

		if err := execChunks(ctx, tx, facts, w.chunkSize(7), upsertFacts); err != nil {
			return err
		}
		report.Loaded = len(facts)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Stage(logging.StageLoad).Info().
		Int("loaded", report.Loaded).
		Int("rejected", len(report.Rejected)).
		Msg("Loaded fact_sales")

	return report, nil
}

// RecordRun stores run statistics in the metadata table.
func (w *Writer) RecordRun(ctx context.Context, stats map[string]string) error {
	return db.SaveRunMetadata(ctx, w.db, stats)
}

// Close closes the underlying connection if it is closable.
func (w *Writer) Close(ctx context.Context) error {
	if c, ok := w.db.(interface{ Close(context.Context) error }); ok {
		return c.Close(ctx)
	}
	return nil
}

func (w *Writer) load(ctx context.Context, table string, columns, count int,
	fn func(tx pgx.Tx, size int) error) error {
	err := w.inTx(ctx, table, func(tx pgx.Tx) error {
		return fn(tx, w.chunkSize(columns))
	})
	if err != nil {
		return err
	}

	logging.Stage(logging.StageLoad).Info().
		Str("table", table).
		Int("rows", count).
		Msgf("Loaded %s", table)
	return nil
}

// inTx runs fn in a transaction that is rolled back unless fn and the
// commit both succeed.
func (w *Writer) inTx(ctx context.Context, table string, fn func(tx pgx.Tx) error) error {
	tx, err := w.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to load %s: failed to begin transaction: %w", table, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return fmt.Errorf("failed to load %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to load %s: failed to commit: %w", table, err)
	}
	return nil
}

// chunkSize keeps a multi-row statement under the bind parameter limit.
func (w *Writer) chunkSize(columns int) int {
	return min(w.batchSize, maxParams/columns)
}

func execChunks[T any](ctx context.Context, tx pgx.Tx, rows []T, size int,
	build func([]T) (string, []any, error)) error {
	for _, chunk := range chunks(rows, size) {
		sqlStr, args, err := build(chunk)
		if err != nil {
			return fmt.Errorf("failed to build statement: %w", err)
		}
		if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return nil
}
