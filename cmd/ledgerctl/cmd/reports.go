package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
)

// asOfFlag parses --as-of, defaulting to today.
func asOfFlag(cmd *cobra.Command) (time.Time, error) {
	s, _ := cmd.Flags().GetString("as-of")
	t, err := parseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t, nil
}

var trialBalanceCmd = &cobra.Command{
	Use:   "trial-balance",
	Short: "Print the trial balance for a tenant",
	Example: `  ledgerctl trial-balance --tenant springfield
  ledgerctl trial-balance --tenant springfield --period Q1 --year 2024`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, err := requireTenant()
		if err != nil {
			return err
		}
		period, _ := cmd.Flags().GetString("period")
		year, _ := cmd.Flags().GetInt("year")
		asOf, err := asOfFlag(cmd)
		if err != nil {
			return err
		}
		if period != "" && year == 0 {
			year = asOf.Year()
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			var tb *domain.TrialBalanceResult
			if period != "" {
				tb, err = a.svc.Reporting.TrialBalanceForPeriod(ctx, tenant, period, year)
			} else {
				tb, err = a.svc.Reporting.TrialBalance(ctx, tenant, asOf)
			}
			if err != nil {
				return err
			}
			return printTrialBalance(cmd.OutOrStdout(), tb)
		})
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare the municipality book with the filer books",
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, err := requireTenant()
		if err != nil {
			return err
		}
		municipality, _ := cmd.Flags().GetString("municipality")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			report, err := a.svc.Reconciliation.GenerateReport(ctx, tenant, municipality)
			if err != nil {
				return err
			}
			return printReconciliation(cmd.OutOrStdout(), report)
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance ACCOUNT",
	Short: "Print the balance of one account across all entities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, err := requireTenant()
		if err != nil {
			return err
		}
		asOf, err := asOfFlag(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			bal, err := a.svc.Balance.ComputeBalance(ctx, tenant, args[0], asOf)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), bal)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s as of %s: debits %s, credits %s, net %s (%s normal)\n",
				bal.AccountNumber, bal.AsOf.Format(time.DateOnly), money(bal.DebitTotal),
				money(bal.CreditTotal), money(bal.NetBalance), bal.NormalBalance)
			return err
		})
	},
}

var paymentShowCmd = &cobra.Command{
	Use:   "payment PAYMENT_ID",
	Short: "Show a recorded payment transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			p, err := a.svc.Payment.GetPayment(ctx, args[0])
			if err != nil {
				return err
			}
			return printPayment(cmd.OutOrStdout(), &dto.PaymentResult{Transaction: *p})
		})
	},
}

func init() {
	trialBalanceCmd.Flags().String("as-of", "", "report date YYYY-MM-DD (default today)")
	trialBalanceCmd.Flags().String("period", "", "period code: Q1..Q4, M1..M12 or YEAR")
	trialBalanceCmd.Flags().Int("year", 0, "year of --period (default the year of --as-of)")
	trialBalanceCmd.MarkFlagsMutuallyExclusive("as-of", "period")

	reconcileCmd.Flags().String("municipality", "", "municipality entity id (default the tenant)")

	balanceCmd.Flags().String("as-of", "", "balance date YYYY-MM-DD (default today)")

	rootCmd.AddCommand(trialBalanceCmd, reconcileCmd, balanceCmd, paymentShowCmd)
}
