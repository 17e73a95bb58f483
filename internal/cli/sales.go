package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"carshare-ledger/internal/app"
	"carshare-ledger/internal/domain"
)

// SaleBatch is the file format read by start-sales.
type SaleBatch struct {
	Sales []domain.SaleParams `yaml:"sales"`
}

// LoadSaleBatch reads a YAML batch file.
func LoadSaleBatch(path string) (*SaleBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	var batch SaleBatch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	return &batch, nil
}

// NewStartSalesCommand starts every sale of a batch file as the owner. The
// batch is all or nothing.
func NewStartSalesCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "start-sales",
		Short: "Start a batch of sales from a YAML file",
		Long: `Start a batch of sales from a YAML file of the form

  sales:
    - id: 1
      tokens_total: 100
      deadline: 1767225600
      price_per_token: 1000
      uri: ipfs://car-1

The whole batch is rejected if any sale fails its checks.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load(cmd)
			if err != nil {
				return err
			}
			batch, err := LoadSaleBatch(file)
			if err != nil {
				return err
			}

			ledger, err := app.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer ledger.Close()

			owner := domain.Account(cfg.Ledger.OwnerAccount)
			if err := ledger.Sales.StartNewSales(cmd.Context(), owner, batch.Sales); err != nil {
				if e, ok := domain.AsError(err); ok {
					return fmt.Errorf("batch rejected: %s: %s", e.Code, e.Message)
				}
				return err
			}
			if _, err := ledger.Relay.Flush(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range batch.Sales {
				fmt.Fprintf(out, "started sale %d: %d tokens at %d until %d\n", s.ID, s.TokensTotal, s.PricePerToken, s.Deadline)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "batch file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
