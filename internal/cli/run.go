package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/pipeline"
	"github.com/pgEdge/pgedge-salesdw/internal/source"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

var runBatchSize int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract, transform and load the source files into the warehouse",
	Long: `Run the ETL pipeline once. The three CSV files are read from the data
directory, cleaned, and loaded into a warehouse whose tables already exist
(see 'pgedge-salesdw schema').

Customers, products and dates are loaded first, each in its own
transaction; sales facts follow in a single transaction. Sales that
reference an unknown customer, product or date are skipped and reported.

Example:
  pgedge-salesdw run --data-dir data/raw --connection "postgres://..."`,
	RunE: runPipeline,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().IntVar(&runBatchSize, "batch-size", 0,
			"rows per multi-row INSERT (default: 1000)")
	}
}

func runPipeline(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if runBatchSize > 0 {
		cfg.Load.BatchSize = runBatchSize
	}

	// Validate configuration
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	logging.Info().
		Str("data_dir", cfg.DataDir).
		Int("batch_size", cfg.Load.BatchSize).
		Msg("Starting ETL pipeline")

	// Cancel on Ctrl+C; an in-flight transaction is rolled back
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := &pipeline.Pipeline{
		Source: source.NewReader(cfg.DataDir),
		Connect: func(ctx context.Context) (pipeline.Store, error) {
			conn, err := connectSingle(ctx, "load")
			if err != nil {
				return nil, err
			}
			return warehouse.NewWriter(conn, warehouse.Options{BatchSize: cfg.Load.BatchSize}), nil
		},
		Out: cmd.OutOrStdout(),
	}

	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}

	logging.Info().
		Int("facts_loaded", summary.Facts.Loaded).
		Int("facts_rejected", len(summary.Facts.Rejected)).
		Dur("duration", summary.Duration).
		Msg("ETL pipeline complete")

	return nil
}
