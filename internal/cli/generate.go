package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salesdw/internal/datagen"
)

var (
	generateCustomers  int
	generateProducts   int
	generateSales      int
	generateSeed       uint64
	generateDirtyRatio float64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write sample source CSV files",
	Long: `Write sample sales.csv, customers.csv and products.csv into the data
directory. A fraction of rows (--dirty-ratio) carries a defect such as a
duplicate id, a blank field, a non-positive amount, an unparseable number
or a reference to an unknown customer, so a following 'run' shows the
cleaning and skip paths at work.

Example:
  pgedge-salesdw generate --sales 10000 --seed 42
  pgedge-salesdw generate --dirty-ratio 0 --data-dir /tmp/clean`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&generateCustomers, "customers", 0,
		"number of customers (default: 200)")
	generateCmd.Flags().IntVar(&generateProducts, "products", 0,
		"number of products (default: 50)")
	generateCmd.Flags().IntVar(&generateSales, "sales", 0,
		"number of sales (default: 5000)")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 0,
		"random seed for reproducible output (0 = random)")
	generateCmd.Flags().Float64Var(&generateDirtyRatio, "dirty-ratio", -1,
		"fraction of rows with a data quality defect (default: 0.05)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if generateCustomers > 0 {
		cfg.Generate.Customers = generateCustomers
	}
	if generateProducts > 0 {
		cfg.Generate.Products = generateProducts
	}
	if generateSales > 0 {
		cfg.Generate.Sales = generateSales
	}
	if generateSeed > 0 {
		cfg.Generate.Seed = generateSeed
	}
	if generateDirtyRatio >= 0 {
		cfg.Generate.DirtyRatio = generateDirtyRatio
	}

	// Validate configuration
	if err := cfg.ValidateGenerate(); err != nil {
		return err
	}

	report, err := datagen.WriteSample(cfg.DataDir, cfg.Generate)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d customers, %d products and %d sales to %s\n",
		report.Customers, report.Products, report.Sales, cfg.DataDir)
	for _, kind := range slices.Sorted(maps.Keys(report.Defects)) {
		fmt.Fprintf(out, "  %-22s %d\n", kind, report.Defects[kind])
	}
	return nil
}
