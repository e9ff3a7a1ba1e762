package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-salesdw/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRowQuarter(t *testing.T) {
	want := map[time.Month]int{
		time.January: 1, time.February: 1, time.March: 1,
		time.April: 2, time.May: 2, time.June: 2,
		time.July: 3, time.August: 3, time.September: 3,
		time.October: 4, time.November: 4, time.December: 4,
	}

	for _, year := range []int{1999, 2000, 2023, 2024, 2100} {
		for month, q := range want {
			row := DateRow(day(year, month, 1))
			require.Equal(t, q, row.Quarter, "%d-%02d", year, month)
			require.Equal(t, "Q"+string(rune('0'+q)), row.QuarterName)
			require.Equal(t, month.String(), row.MonthName)
		}
	}
}

func TestDateRowWeekday(t *testing.T) {
	tests := []struct {
		date    time.Time
		name    string
		weekend bool
	}{
		{day(2024, 3, 15), "Friday", false},
		{day(2024, 2, 29), "Thursday", false},
		{day(2024, 3, 16), "Saturday", true},
		{day(2024, 3, 17), "Sunday", true},
		{day(2024, 3, 18), "Monday", false},
		{day(2023, 12, 31), "Sunday", true},
		{day(2024, 1, 1), "Monday", false},
		{day(2000, 2, 29), "Tuesday", false},
		{day(2022, 1, 1), "Saturday", true},
	}

	for _, tt := range tests {
		t.Run(model.DateKey(tt.date), func(t *testing.T) {
			row := DateRow(tt.date)
			require.Equal(t, tt.name, row.DayOfWeek)
			require.Equal(t, tt.weekend, row.IsWeekend)
			require.Equal(t, tt.weekend, tt.date.Weekday() == time.Saturday || tt.date.Weekday() == time.Sunday)
		})
	}
}

func TestDateRowWeekendMatchesCalendarForAYear(t *testing.T) {
	for d := day(2024, 1, 1); d.Year() == 2024; d = d.AddDate(0, 0, 1) {
		row := DateRow(d)
		wd := d.Weekday()
		require.Equal(t, wd == time.Saturday || wd == time.Sunday, row.IsWeekend, model.DateKey(d))
		require.Equal(t, wd.String(), row.DayOfWeek, model.DateKey(d))
	}
}

func TestDateRowScenario(t *testing.T) {
	row := DateRow(day(2024, 3, 15))
	require.Equal(t, model.DateDimensionRow{
		SaleDate:    day(2024, 3, 15),
		Day:         15,
		Month:       3,
		Quarter:     1,
		Year:        2024,
		MonthName:   "March",
		QuarterName: "Q1",
		DayOfWeek:   "Friday",
		IsWeekend:   false,
	}, row)
}

func TestBuildDateDimensionDistinctSorted(t *testing.T) {
	sales := []model.SalesRecord{
		{SaleID: 1, SaleDate: day(2024, 5, 2)},
		{SaleID: 2, SaleDate: day(2023, 12, 31)},
		{SaleID: 3, SaleDate: day(2024, 5, 2)},
		{SaleID: 4, SaleDate: day(2024, 1, 1)},
	}

	rows := BuildDateDimension(sales)
	require.Len(t, rows, 3)
	require.Equal(t, day(2023, 12, 31), rows[0].SaleDate)
	require.Equal(t, day(2024, 1, 1), rows[1].SaleDate)
	require.Equal(t, day(2024, 5, 2), rows[2].SaleDate)
}

func TestBuildDateDimensionEmpty(t *testing.T) {
	require.Empty(t, BuildDateDimension(nil))
}

func TestAll(t *testing.T) {
	res := All(&model.Dataset{
		Sales: []model.RawSale{
			sale("100", "2024-03-15", "1", "10", "3", "9.99", "29.97"),
			sale("101", "2024-03-15", "999", "10", "1", "9.99", "9.99"),
			sale("102", "2024-03-16", "1", "10", "0", "9.99", "9.99"),
		},
		Customers: []model.RawCustomer{{CustomerID: "1", CustomerName: "Alice", Email: "a@x.com", City: "NY", Country: "US"}},
		Products:  []model.RawProduct{{ProductID: "10", ProductName: "Widget", Category: "Tools", Subcategory: "Hand", UnitCost: "2.50"}},
	})

	// The dangling customer reference survives cleaning; the resolver
	// drops it later.
	require.Len(t, res.Sales, 2)
	require.Len(t, res.Customers, 1)
	require.Len(t, res.Products, 1)
	require.Len(t, res.Dates, 1)
	require.Len(t, res.Reports, 3)
	require.Equal(t, "sales", res.Reports[0].Entity)
	require.Equal(t, 1, res.Reports[0].NonPositive)
	require.Equal(t, "customers", res.Reports[1].Entity)
	require.Equal(t, "products", res.Reports[2].Entity)
}
