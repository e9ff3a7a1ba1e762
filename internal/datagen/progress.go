//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
)

// DefaultProgressInterval is how many rows pass between progress lines.
const DefaultProgressInterval = 100000

// ProgressReporter logs row generation progress for one file.
type ProgressReporter struct {
	file       string
	totalRows  int64
	currentRow int64
	interval   int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(file string, totalRows, interval int64) *ProgressReporter {
	if interval < 1 {
		interval = DefaultProgressInterval
	}
	return &ProgressReporter{
		file:      file,
		totalRows: totalRows,
		interval:  interval,
	}
}

// Update adds rows to the count and logs when an interval is crossed.
func (p *ProgressReporter) Update(rows int64) {
	old := p.currentRow
	p.currentRow += rows

	if p.currentRow/p.interval > old/p.interval && p.totalRows > 0 {
		pct := float64(p.currentRow) / float64(p.totalRows) * 100
		logging.Info().
			Str("file", p.file).
			Int64("rows", p.currentRow).
			Int64("total", p.totalRows).
			Float64("percent", pct).
			Msg("Generating sample data")
	}
}

// Rows returns the number of rows reported so far.
func (p *ProgressReporter) Rows() int64 {
	return p.currentRow
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Info().
		Str("file", p.file).
		Int64("rows", p.currentRow).
		Msg("Sample file complete")
}
