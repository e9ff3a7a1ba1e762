//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline runs extract, transform and load in sequence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/model"
	"github.com/pgEdge/pgedge-salesdw/internal/source"
	"github.com/pgEdge/pgedge-salesdw/internal/transform"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

// Extractor produces the raw dataset.
type Extractor interface {
	Extract() (*model.Dataset, error)
}

// Store is the load side of the pipeline. *warehouse.Writer implements it.
type Store interface {
	LoadDimensions(ctx context.Context, customers []model.CustomerRecord,
		products []model.ProductRecord, dates []model.DateDimensionRow) (*warehouse.DimensionReceipt, error)
	LoadFacts(ctx context.Context, receipt *warehouse.DimensionReceipt,
		sales []model.SalesRecord) (*warehouse.FactReport, error)
	RecordRun(ctx context.Context, stats map[string]string) error
	Close(ctx context.Context) error
}

// Pipeline wires a source to a store.
type Pipeline struct {
	Source Extractor

	// Connect opens the store. It is called only after extraction and
	// transformation succeed.
	Connect func(ctx context.Context) (Store, error)

	// Out receives the progress banners. Nil discards them.
	Out io.Writer
}

// Summary describes a completed run.
type Summary struct {
	Cleaning   []transform.CleanReport
	Dimensions *warehouse.DimensionReceipt
	Facts      *warehouse.FactReport
	Duration   time.Duration
}

var rule = strings.Repeat("=", 60)
var thinRule = strings.Repeat("-", 60)

// Run executes the three stages. Any error aborts the remaining stages,
// prints a troubleshooting note and is returned.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	p.printf("%s\nDATA WAREHOUSE ETL PIPELINE\n%s\n\n", rule, rule)

	summary, err := p.run(ctx)
	if err != nil {
		p.printf("\n%s\nERROR: ETL PIPELINE FAILED\n%s\n", rule, rule)
		p.printf("Error message: %v\n\n", err)
		p.printf("Troubleshooting:\n")
		for i, hint := range hints(err) {
			p.printf("%d. %s\n", i+1, hint)
		}
		return nil, err
	}
	summary.Duration = time.Since(start)

	p.printf("%s\nETL PIPELINE COMPLETED SUCCESSFULLY!\n%s\n\n", rule, rule)
	p.printf("Facts loaded: %d, skipped: %d (%s)\n\n",
		summary.Facts.Loaded, len(summary.Facts.Rejected), summary.Duration.Round(time.Millisecond))
	p.printf("Next steps:\n")
	p.printf("1. Run 'pgedge-salesdw report' for revenue summaries\n")
	p.printf("2. Connect to PostgreSQL and explore the data warehouse\n")

	return summary, nil
}

func (p *Pipeline) run(ctx context.Context) (*Summary, error) {
	p.printf("STEP 1: EXTRACTING DATA FROM CSV FILES\n%s\n", thinRule)
	stageStart := time.Now()
	ds, err := p.Source.Extract()
	if err != nil {
		return nil, err
	}
	stageDone(logging.StageExtract, stageStart)
	p.printf("Sales: %d, customers: %d, products: %d\n\n",
		len(ds.Sales), len(ds.Customers), len(ds.Products))

	p.printf("STEP 2: TRANSFORMING DATA\n%s\n", thinRule)
	stageStart = time.Now()
	res := transform.All(ds)
	stageDone(logging.StageTransform, stageStart)
	for _, r := range res.Reports {
		p.printf("%s: %d -> %d (removed %d)\n", r.Entity, r.Input, r.Output, r.Removed())
	}
	p.printf("Dates: %d\n\n", len(res.Dates))

	p.printf("STEP 3: LOADING DATA INTO DATA WAREHOUSE\n%s\n", thinRule)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stageStart = time.Now()
	store, err := p.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			logging.Stage(logging.StageLoad).Warn().Err(err).Msg("Failed to close warehouse connection")
		}
	}()

	receipt, err := store.LoadDimensions(ctx, res.Customers, res.Products, res.Dates)
	if err != nil {
		return nil, err
	}
	facts, err := store.LoadFacts(ctx, receipt, res.Sales)
	if err != nil {
		return nil, err
	}
	stageDone(logging.StageLoad, stageStart)
	p.printf("Customers: %d, products: %d, dates: %d, facts: %d\n\n",
		receipt.Customers, receipt.Products, receipt.Dates, facts.Loaded)

	stats := map[string]string{
		"customers_loaded": strconv.Itoa(receipt.Customers),
		"products_loaded":  strconv.Itoa(receipt.Products),
		"dates_loaded":     strconv.Itoa(receipt.Dates),
		"facts_loaded":     strconv.Itoa(facts.Loaded),
		"facts_rejected":   strconv.Itoa(len(facts.Rejected)),
	}
	if err := store.RecordRun(ctx, stats); err != nil {
		// The warehouse is already committed at this point.
		logging.Stage(logging.StageLoad).Warn().Err(err).Msg("Failed to record run metadata")
	}

	return &Summary{
		Cleaning:   res.Reports,
		Dimensions: receipt,
		Facts:      facts,
	}, nil
}

func stageDone(name string, start time.Time) {
	logging.Stage(name).Debug().Dur("elapsed", time.Since(start)).Msg("Stage complete")
}

func (p *Pipeline) printf(format string, args ...any) {
	if p.Out == nil {
		return
	}
	fmt.Fprintf(p.Out, format, args...)
}

// hints returns troubleshooting steps for err, most likely cause first.
func hints(err error) []string {
	generic := []string{
		"Check PostgreSQL is running",
		"Verify the warehouse connection settings in pgedge-salesdw.yaml or --connection",
		"Ensure tables are created (run 'pgedge-salesdw schema')",
	}
	if errors.Is(err, source.ErrSourceNotFound) || errors.Is(err, source.ErrMalformedSource) {
		return append([]string{
			"Check the data directory contains sales.csv, customers.csv and products.csv with header rows",
		}, generic...)
	}
	return generic
}
