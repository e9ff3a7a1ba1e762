package transform

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-salesdw/internal/model"
)

func sale(id, date, cust, prod, qty, price, total string) model.RawSale {
	return model.RawSale{
		SaleID: id, SaleDate: date, CustomerID: cust, ProductID: prod,
		Quantity: qty, UnitPrice: price, TotalAmount: total,
	}
}

func TestIsNull(t *testing.T) {
	for _, s := range []string{"", "  ", "NA", "N/A", "null", "NULL", "NaN", "None", "<NA>"} {
		require.True(t, IsNull(s), "expected %q to be null", s)
	}
	for _, s := range []string{"0", "Alice", "none of the above", "-"} {
		require.False(t, IsNull(s), "expected %q to be non-null", s)
	}
}

func TestDedupFirstOccurrenceWins(t *testing.T) {
	rows := []model.RawCustomer{
		{CustomerID: "1", CustomerName: "Alice"},
		{CustomerID: "2", CustomerName: "Bob"},
		{CustomerID: "1", CustomerName: "Alice Again"},
		{CustomerID: " 2", CustomerName: "Bob Padded"},
		{CustomerID: "1.0", CustomerName: "Alice Float"},
		{CustomerID: "3", CustomerName: "Carol"},
	}

	out, removed := Dedup(rows)
	require.Equal(t, 3, removed)
	require.Len(t, out, 3)
	require.Equal(t, "Alice", out[0].CustomerName)
	require.Equal(t, "Bob", out[1].CustomerName)
	require.Equal(t, "Carol", out[2].CustomerName)
}

func TestDedupLeavesNullKeysForNullFilter(t *testing.T) {
	rows := []model.RawCustomer{
		{CustomerID: "", CustomerName: "A"},
		{CustomerID: "", CustomerName: "B"},
	}
	out, removed := Dedup(rows)
	require.Equal(t, 0, removed)
	require.Len(t, out, 2)

	out, removed = DropNulls(out)
	require.Equal(t, 2, removed)
	require.Empty(t, out)
}

func TestDedupDoesNotMutateInput(t *testing.T) {
	rows := []model.RawCustomer{{CustomerID: "1"}, {CustomerID: "1"}}
	_, _ = Dedup(rows)
	require.Len(t, rows, 2)
	require.Equal(t, "1", rows[1].CustomerID)
}

func TestCleanSalesEndToEndRow(t *testing.T) {
	out, report := CleanSales([]model.RawSale{
		sale("100", "2024-03-15", "1", "10", "3", "9.99", "29.97"),
	})

	require.Len(t, out, 1)
	got := out[0]
	require.Equal(t, int64(100), got.SaleID)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got.SaleDate)
	require.Equal(t, int64(1), got.CustomerID)
	require.Equal(t, int64(10), got.ProductID)
	require.Equal(t, int64(3), got.Quantity)
	require.True(t, got.UnitPrice.Equal(decimal.RequireFromString("9.99")))
	require.True(t, got.TotalAmount.Equal(decimal.RequireFromString("29.97")))

	require.Equal(t, CleanReport{Entity: "sales", Input: 1, Output: 1}, report)
}

func TestCleanSalesQualityFilter(t *testing.T) {
	tests := []struct {
		name   string
		row    model.RawSale
		expect func(t *testing.T, r CleanReport)
	}{
		{
			name:   "zero quantity",
			row:    sale("1", "2024-01-01", "1", "1", "0", "1.00", "1.00"),
			expect: func(t *testing.T, r CleanReport) { require.Equal(t, 1, r.NonPositive) },
		},
		{
			name:   "negative unit price",
			row:    sale("1", "2024-01-01", "1", "1", "1", "-1.00", "1.00"),
			expect: func(t *testing.T, r CleanReport) { require.Equal(t, 1, r.NonPositive) },
		},
		{
			name:   "zero total",
			row:    sale("1", "2024-01-01", "1", "1", "1", "1.00", "0"),
			expect: func(t *testing.T, r CleanReport) { require.Equal(t, 1, r.NonPositive) },
		},
		{
			name:   "non-numeric total",
			row:    sale("1", "2024-01-01", "1", "1", "1", "1.00", "abc"),
			expect: func(t *testing.T, r CleanReport) { require.Equal(t, 1, r.Invalid) },
		},
		{
			name:   "fractional quantity",
			row:    sale("1", "2024-01-01", "1", "1", "1.5", "1.00", "1.50"),
			expect: func(t *testing.T, r CleanReport) { require.Equal(t, 1, r.Invalid) },
		},
		{
			name:   "unparseable date",
			row:    sale("1", "not-a-date", "1", "1", "1", "1.00", "1.00"),
			expect: func(t *testing.T, r CleanReport) { require.Equal(t, 1, r.Invalid) },
		},
		{
			name:   "non-numeric customer",
			row:    sale("1", "2024-01-01", "abc", "1", "1", "1.00", "1.00"),
			expect: func(t *testing.T, r CleanReport) { require.Equal(t, 1, r.Invalid) },
		},
		{
			name:   "missing price",
			row:    sale("1", "2024-01-01", "1", "1", "1", "", "1.00"),
			expect: func(t *testing.T, r CleanReport) { require.Equal(t, 1, r.Missing) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, report := CleanSales([]model.RawSale{tt.row})
			require.Empty(t, out)
			require.Equal(t, 1, report.Removed())
			require.Equal(t, 0, report.Output)
			tt.expect(t, report)
		})
	}
}

func TestParseIntRange(t *testing.T) {
	v, ok := parseInt("9223372036854775807")
	require.True(t, ok)
	require.Equal(t, int64(9223372036854775807), v)

	v, ok = parseInt("-12.0")
	require.True(t, ok)
	require.Equal(t, int64(-12), v)

	for _, s := range []string{"9223372036854775808", "-9223372036854775809", "1e30", "9223372036854775808.0"} {
		_, ok := parseInt(s)
		require.False(t, ok, "expected %q to be rejected", s)
	}
}

func TestCleanSalesOverflowingIDIsInvalid(t *testing.T) {
	out, report := CleanSales([]model.RawSale{
		sale("9223372036854775808", "2024-01-01", "1", "1", "1", "1.00", "1.00"),
		sale("-9223372036854775808", "2024-01-01", "1", "1", "1", "1.00", "1.00"),
	})

	require.Len(t, out, 1)
	require.Equal(t, int64(-9223372036854775808), out[0].SaleID)
	require.Equal(t, 0, report.Duplicates)
	require.Equal(t, 1, report.Invalid)
}

func TestCleanSalesDedupBeforeNullFilter(t *testing.T) {
	// The first row for sale 5 has a null; its later duplicate must not
	// resurrect the sale.
	out, report := CleanSales([]model.RawSale{
		sale("5", "2024-01-01", "1", "1", "", "1.00", "1.00"),
		sale("5", "2024-01-01", "1", "1", "2", "1.00", "2.00"),
		sale("6", "2024-01-02", "1", "1", "2", "1.00", "2.00"),
	})

	require.Len(t, out, 1)
	require.Equal(t, int64(6), out[0].SaleID)
	require.Equal(t, 1, report.Duplicates)
	require.Equal(t, 1, report.Missing)
}

func TestCleanSalesDateFormats(t *testing.T) {
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	for i, s := range []string{"2024-02-29", "2024-02-29 13:45:00", "2024-02-29T13:45:00", "2024-02-29T23:59:59Z", "2024/02/29", "02/29/2024"} {
		out, _ := CleanSales([]model.RawSale{sale("1", s, "1", "1", "1", "1", "1")})
		require.Len(t, out, 1, "case %d: %s", i, s)
		require.Equal(t, want, out[0].SaleDate, "case %d: %s", i, s)
	}
}

func TestCleanCustomers(t *testing.T) {
	out, report := CleanCustomers([]model.RawCustomer{
		{CustomerID: "1", CustomerName: " Alice ", Email: "a@x.com", City: "NY", Country: "US"},
		{CustomerID: "1", CustomerName: "Dup", Email: "d@x.com", City: "NY", Country: "US"},
		{CustomerID: "2", CustomerName: "Bob", Email: "", City: "LA", Country: "US"},
		{CustomerID: "x", CustomerName: "Bad", Email: "b@x.com", City: "LA", Country: "US"},
		{CustomerID: "3", CustomerName: "Carol", Email: "c@x.com", City: "SF", Country: "US"},
	})

	require.Len(t, out, 2)
	require.Equal(t, model.CustomerRecord{CustomerID: 1, CustomerName: "Alice", Email: "a@x.com", City: "NY", Country: "US"}, out[0])
	require.Equal(t, int64(3), out[1].CustomerID)
	require.Equal(t, 1, report.Duplicates)
	require.Equal(t, 1, report.Missing)
	require.Equal(t, 1, report.Invalid)
	require.Equal(t, 2, report.Output)
}

func TestCleanProductsUnitCost(t *testing.T) {
	out, report := CleanProducts([]model.RawProduct{
		{ProductID: "10", ProductName: "Widget", Category: "Tools", Subcategory: "Hand", UnitCost: "2.50"},
		{ProductID: "11", ProductName: "Gadget", Category: "Tools", Subcategory: "Power", UnitCost: ""},
		{ProductID: "12", ProductName: "Gizmo", Category: "Toys", Subcategory: "Kids", UnitCost: "cheap"},
		{ProductID: "13", ProductName: "Doohickey", Category: "Toys", Subcategory: "Kids", UnitCost: "-4"},
		{ProductID: "14", ProductName: "", Category: "Toys", Subcategory: "Kids", UnitCost: "1"},
	})

	require.Len(t, out, 4)
	require.True(t, out[0].UnitCost.Equal(decimal.RequireFromString("2.5")))
	for _, p := range out[1:] {
		require.True(t, p.UnitCost.IsZero(), "product %d", p.ProductID)
	}
	require.Equal(t, 3, report.Defaulted)
	require.Equal(t, 1, report.Missing)
	require.Equal(t, 1, report.Removed())
}
