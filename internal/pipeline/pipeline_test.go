//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-salesdw/internal/model"
	"github.com/pgEdge/pgedge-salesdw/internal/source"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

type fakeSource struct {
	ds  *model.Dataset
	err error
}

func (f fakeSource) Extract() (*model.Dataset, error) { return f.ds, f.err }

type fakeStore struct {
	calls []string

	dimErr    error
	factErr   error
	recordErr error

	sales []model.SalesRecord
	stats map[string]string
}

func (f *fakeStore) LoadDimensions(_ context.Context, c []model.CustomerRecord,
	p []model.ProductRecord, d []model.DateDimensionRow) (*warehouse.DimensionReceipt, error) {
	f.calls = append(f.calls, "dimensions")
	if f.dimErr != nil {
		return nil, f.dimErr
	}
	return &warehouse.DimensionReceipt{Customers: len(c), Products: len(p), Dates: len(d)}, nil
}

func (f *fakeStore) LoadFacts(_ context.Context, _ *warehouse.DimensionReceipt,
	sales []model.SalesRecord) (*warehouse.FactReport, error) {
	f.calls = append(f.calls, "facts")
	if f.factErr != nil {
		return nil, f.factErr
	}
	f.sales = sales
	return &warehouse.FactReport{Candidates: len(sales), Loaded: len(sales)}, nil
}

func (f *fakeStore) RecordRun(_ context.Context, stats map[string]string) error {
	f.calls = append(f.calls, "record")
	f.stats = stats
	return f.recordErr
}

func (f *fakeStore) Close(context.Context) error {
	f.calls = append(f.calls, "close")
	return nil
}

func dataset() *model.Dataset {
	return &model.Dataset{
		Sales: []model.RawSale{
			{SaleID: "1", SaleDate: "2024-03-15", CustomerID: "1", ProductID: "10",
				Quantity: "2", UnitPrice: "10.00", TotalAmount: "20.00"},
			{SaleID: "1", SaleDate: "2024-03-16", CustomerID: "1", ProductID: "10",
				Quantity: "9", UnitPrice: "10.00", TotalAmount: "90.00"},
		},
		Customers: []model.RawCustomer{
			{CustomerID: "1", CustomerName: "Alice", Email: "a@x.com", City: "Paris", Country: "FR"},
		},
		Products: []model.RawProduct{
			{ProductID: "10", ProductName: "Widget", Category: "Tools", Subcategory: "Hand"},
		},
	}
}

func newPipeline(src Extractor, store *fakeStore, out *bytes.Buffer) *Pipeline {
	return &Pipeline{
		Source: src,
		Connect: func(context.Context) (Store, error) {
			store.calls = append(store.calls, "connect")
			return store, nil
		},
		Out: out,
	}
}

func TestRunSuccess(t *testing.T) {
	store := &fakeStore{}
	var out bytes.Buffer

	summary, err := newPipeline(fakeSource{ds: dataset()}, store, &out).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"connect", "dimensions", "facts", "record", "close"}, store.calls)
	require.Len(t, store.sales, 1)
	require.Equal(t, int64(2), store.sales[0].Quantity)
	require.Equal(t, 1, summary.Facts.Loaded)
	require.Equal(t, 1, summary.Dimensions.Dates)
	require.Len(t, summary.Cleaning, 3)
	require.Equal(t, 1, summary.Cleaning[0].Duplicates)
	require.Equal(t, "1", store.stats["facts_loaded"])
	require.Equal(t, "0", store.stats["facts_rejected"])

	text := out.String()
	for _, banner := range []string{
		"DATA WAREHOUSE ETL PIPELINE",
		"STEP 1: EXTRACTING DATA FROM CSV FILES",
		"STEP 2: TRANSFORMING DATA",
		"STEP 3: LOADING DATA INTO DATA WAREHOUSE",
		"ETL PIPELINE COMPLETED SUCCESSFULLY!",
		"Next steps:",
	} {
		require.Contains(t, text, banner)
	}
	require.NotContains(t, text, "FAILED")
}

func TestRunExtractFailureNeverConnects(t *testing.T) {
	store := &fakeStore{}
	var out bytes.Buffer
	srcErr := fmt.Errorf("sales %w: data/raw/sales.csv", source.ErrSourceNotFound)

	_, err := newPipeline(fakeSource{err: srcErr}, store, &out).Run(context.Background())
	require.ErrorIs(t, err, source.ErrSourceNotFound)
	require.Empty(t, store.calls)

	text := out.String()
	require.Contains(t, text, "ERROR: ETL PIPELINE FAILED")
	require.Contains(t, text, "data/raw/sales.csv")
	require.Contains(t, text, "1. Check the data directory")
	require.NotContains(t, text, "STEP 2")
}

func TestRunDimensionFailureSkipsFacts(t *testing.T) {
	store := &fakeStore{dimErr: errors.New("failed to load dim_customer: boom")}
	var out bytes.Buffer

	_, err := newPipeline(fakeSource{ds: dataset()}, store, &out).Run(context.Background())
	require.ErrorContains(t, err, "dim_customer")
	require.Equal(t, []string{"connect", "dimensions", "close"}, store.calls)
	require.Contains(t, out.String(), "1. Check PostgreSQL is running")
}

func TestRunFactFailureClosesStore(t *testing.T) {
	store := &fakeStore{factErr: errors.New("failed to load fact_sales: boom")}

	_, err := newPipeline(fakeSource{ds: dataset()}, store, nil).Run(context.Background())
	require.Error(t, err)
	require.Equal(t, []string{"connect", "dimensions", "facts", "close"}, store.calls)
}

func TestRunConnectFailure(t *testing.T) {
	p := &Pipeline{
		Source: fakeSource{ds: dataset()},
		Connect: func(context.Context) (Store, error) {
			return nil, errors.New("failed to connect: refused")
		},
	}

	_, err := p.Run(context.Background())
	require.ErrorContains(t, err, "refused")
}

func TestRunRecordFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{recordErr: errors.New("metadata")}

	summary, err := newPipeline(fakeSource{ds: dataset()}, store, nil).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)
	require.Equal(t, "close", store.calls[len(store.calls)-1])
}

func TestRunCancelledBeforeLoad(t *testing.T) {
	store := &fakeStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline(fakeSource{ds: dataset()}, store, nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, store.calls)
}
