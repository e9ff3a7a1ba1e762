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
	"fmt"
	"slices"
	"time"

	"github.com/pgEdge/pgedge-salesdw/internal/model"
)

var monthNames = [12]string{"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

// Indexed Monday=0 through Sunday=6.
var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// isoWeekday returns Monday=0 through Sunday=6.
func isoWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DateRow computes the calendar attributes of d.
func DateRow(d time.Time) model.DateDimensionRow {
	month := int(d.Month())
	quarter := (month-1)/3 + 1
	weekday := isoWeekday(d)

	return model.DateDimensionRow{
		SaleDate:    time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
		Day:         d.Day(),
		Month:       month,
		Quarter:     quarter,
		Year:        d.Year(),
		MonthName:   monthNames[month-1],
		QuarterName: fmt.Sprintf("Q%d", quarter),
		DayOfWeek:   dayNames[weekday],
		IsWeekend:   weekday >= 5,
	}
}

// BuildDateDimension returns one row per distinct sale date, ascending.
func BuildDateDimension(sales []model.SalesRecord) []model.DateDimensionRow {
	seen := make(map[string]struct{})
	rows := make([]model.DateDimensionRow, 0)
	for _, s := range sales {
		key := model.DateKey(s.SaleDate)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, DateRow(s.SaleDate))
	}

	slices.SortFunc(rows, func(a, b model.DateDimensionRow) int {
		return a.SaleDate.Compare(b.SaleDate)
	})
	return rows
}
