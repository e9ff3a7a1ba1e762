package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

var schemaDropExisting bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the star schema tables",
	Long: `Create dim_customer, dim_product, dim_date and fact_sales with their
unique natural keys, foreign keys and indexes. Existing tables are left
alone unless --drop-existing is given, in which case all warehouse data
and run metadata are removed first.

Example:
  pgedge-salesdw schema --connection "postgres://..."
  pgedge-salesdw schema --drop-existing`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaDropExisting, "drop-existing", false,
		"drop existing warehouse tables before creating them")
}

func runSchema(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	conn, err := connectSingle(ctx, "schema")
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	if schemaDropExisting {
		logging.Warn().Msg("Dropping existing schema")
		if err := warehouse.DropSchema(ctx, conn); err != nil {
			return err
		}
		if err := db.DropMetadata(ctx, conn); err != nil {
			logging.Debug().Err(err).Msg("No metadata table to drop")
		}
	}

	logging.Info().Msg("Creating schema")
	if err := warehouse.CreateSchema(ctx, conn); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created tables: %v\n", warehouse.Tables)
	return nil
}
