package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/security"
)

// NewIssueTokenCommand prints an access token for an account, signed with the
// configured secret.
func NewIssueTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		account string
		roles   []string
	)

	cmd := &cobra.Command{
		Use:          "issue-token",
		Short:        "Issue an API access token",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load(cmd)
			if err != nil {
				return err
			}
			tm := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
			token, err := tm.GenerateAccessToken(domain.Account(account), roles)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "account the token authenticates (required)")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role claim, may be repeated")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
