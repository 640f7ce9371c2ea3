package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
)

var seedChartCmd = &cobra.Command{
	Use:   "seed-chart",
	Short: "Register the standard chart of accounts for a tenant",
	Long:  `Register every account of the standard chart the tenant does not have yet. Safe to re-run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, err := requireTenant()
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			created, err := a.svc.Account.SeedStandardChart(ctx, tenant, actorFlag)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %d of %d standard accounts for %s\n",
				len(created), len(domain.StandardChart), tenant)
			return nil
		})
	},
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage the chart of accounts",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tenant's active accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, err := requireTenant()
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			accounts, err := a.svc.Account.ListActiveAccounts(ctx, tenant)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), accounts)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NUMBER\tNAME\tTYPE\tNORMAL")
			for _, acc := range accounts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", acc.AccountNumber, acc.Name, acc.AccountType, acc.NormalBalance)
			}
			return tw.Flush()
		})
	},
}

var accountsAddCmd = &cobra.Command{
	Use:   "add NUMBER NAME",
	Short: "Register an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, err := requireTenant()
		if err != nil {
			return err
		}
		accountType, _ := cmd.Flags().GetString("type")
		normal, _ := cmd.Flags().GetString("normal")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			acc, err := a.svc.Account.RegisterAccount(ctx, dto.RegisterAccountRequest{
				TenantID:      tenant,
				AccountNumber: args[0],
				Name:          args[1],
				AccountType:   domain.AccountType(accountType),
				NormalBalance: domain.NormalBalance(normal),
				UserID:        actorFlag,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s %s\n", acc.AccountNumber, acc.Name)
			return nil
		})
	},
}

var accountsDeactivateCmd = &cobra.Command{
	Use:   "deactivate NUMBER",
	Short: "Deactivate an account; it keeps its history but accepts no new lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, err := requireTenant()
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.svc.Account.DeactivateAccount(ctx, tenant, args[0], actorFlag); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deactivated %s\n", args[0])
			return nil
		})
	},
}

func init() {
	accountsAddCmd.Flags().String("type", "", "ASSET, LIABILITY, REVENUE or EXPENSE")
	accountsAddCmd.Flags().String("normal", "", "DEBIT or CREDIT")

	accountsCmd.AddCommand(accountsListCmd, accountsAddCmd, accountsDeactivateCmd)
	rootCmd.AddCommand(seedChartCmd, accountsCmd)
}
