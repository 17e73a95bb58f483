package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"carshare-ledger/internal/app"
	"carshare-ledger/internal/config"
	"carshare-ledger/internal/repository/postgres"
)

// NewMigrateCommand applies the embedded schema to the configured database.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Apply database migrations",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Store.Type != config.StorePostgres {
				return fmt.Errorf("migrate needs store.type %q, got %q", config.StorePostgres, cfg.Store.Type)
			}

			db, err := postgres.ConnectDB(cfg.GetDatabaseConnectionString())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.RunMigrations(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

// NewLinkCommand authorizes the sale manager on the asset ledger.
func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "link",
		Short:        "Link the sale manager to the asset ledger",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load(cmd)
			if err != nil {
				return err
			}
			ledger, err := app.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer ledger.Close()

			if err := ledger.Link(cmd.Context()); err != nil {
				return err
			}
			if _, err := ledger.Relay.Flush(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "authorized seller: %s\n", ledger.Sales.Account())
			return nil
		},
	}
}
