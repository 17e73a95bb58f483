// Package cli implements ledgerctl, the operator command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"carshare-ledger/internal/config"
	"carshare-ledger/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// load reads the configuration and points the logger at stderr so command
// output on stdout stays parseable.
func (o *RootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}
	logger.InitializeWithWriter(cmd.ErrOrStderr(), level, cfg.Log.Format)
	return cfg, nil
}

// NewRootCommand creates the root command for ledgerctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the car share ledger",
		Long:  "Administrative tasks for the car share sale manager and rewards engine: schema migrations, batch sale starts and API tokens.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.ConfigPath == "" {
				return fmt.Errorf("--config must not be empty")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "config/config.dev.yaml", "path to configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewLinkCommand(opts))
	cmd.AddCommand(NewStartSalesCommand(opts))
	cmd.AddCommand(NewIssueTokenCommand(opts))

	return cmd
}
