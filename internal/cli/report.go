package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

var reportTop int

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print revenue summaries from the warehouse",
	Long: `Run the standard star schema aggregates against a loaded warehouse:
revenue by month, revenue by product category and the top customers by
revenue.

Example:
  pgedge-salesdw report --top 5`,
	RunE: runReport,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last run and warehouse row counts",
	RunE:  runStatus,
}

func init() {
	reportCmd.Flags().IntVar(&reportTop, "top", 0,
		"number of customers to list (default: 10)")
}

func connectPool(ctx context.Context) (*pgxpool.Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := db.Connect(ctx, cfg.Warehouse.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportTop > 0 {
		cfg.Report.TopCustomers = reportTop
	}

	ctx := context.Background()
	pool, err := connectPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	months, err := warehouse.SalesByMonth(ctx, pool)
	if err != nil {
		return err
	}
	categories, err := warehouse.SalesByCategory(ctx, pool)
	if err != nil {
		return err
	}
	customers, err := warehouse.TopCustomers(ctx, pool, cfg.Report.TopCustomers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Revenue by month")
	tw := newTable(out, "YEAR", "MONTH", "ORDERS", "UNITS", "REVENUE")
	for _, r := range months {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", r.Year, r.MonthName, r.Orders, r.Units, r.Revenue.StringFixed(2))
	}
	tw.Flush()

	fmt.Fprintln(out, "\nRevenue by category")
	tw = newTable(out, "CATEGORY", "ORDERS", "UNITS", "REVENUE")
	for _, r := range categories {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", r.Category, r.Orders, r.Units, r.Revenue.StringFixed(2))
	}
	tw.Flush()

	fmt.Fprintf(out, "\nTop %d customers\n", cfg.Report.TopCustomers)
	tw = newTable(out, "ID", "NAME", "COUNTRY", "ORDERS", "REVENUE")
	for _, r := range customers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", r.CustomerID, r.CustomerName, r.Country, r.Orders, r.Revenue.StringFixed(2))
	}
	return tw.Flush()
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	pool, err := connectPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	out := cmd.OutOrStdout()

	exists, err := db.MetadataExists(ctx, pool)
	if err != nil {
		return err
	}
	if exists {
		meta, err := db.GetAllMetadata(ctx, pool)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Last run")
		tw := newTable(out, "KEY", "VALUE")
		for _, k := range slices.Sorted(maps.Keys(meta)) {
			fmt.Fprintf(tw, "%s\t%s\n", k, meta[k])
		}
		tw.Flush()
		fmt.Fprintln(out)
	} else {
		fmt.Fprintln(out, "No completed run recorded")
		fmt.Fprintln(out)
	}

	counts, err := warehouse.TableCounts(ctx, pool)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
			return fmt.Errorf("warehouse tables are missing; run 'pgedge-salesdw schema' first")
		}
		return err
	}

	tw := newTable(out, "TABLE", "ROWS")
	for _, table := range warehouse.Tables {
		fmt.Fprintf(tw, "%s\t%d\n", table, counts[table])
	}
	return tw.Flush()
}

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw)
	return tw
}
