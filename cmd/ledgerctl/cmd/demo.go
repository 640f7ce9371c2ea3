package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/SscSPs/municipal_tax_ledger/internal/adapters/gateway"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
	"github.com/SscSPs/municipal_tax_ledger/internal/platform/config"
)

const (
	demoClerk     = "demo-clerk"
	demoTreasurer = "demo-treasurer"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run an assessment, payment and refund cycle on an in-memory ledger",
	Long: `demo seeds a chart, assesses a filer, takes two card payments (the second
overpays), refunds the overpayment through the approval workflow and prints the
trial balance and reconciliation. It always uses the in-memory store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant := tenantFlag
		if tenant == "" {
			tenant = "springfield"
		}
		filer, _ := cmd.Flags().GetString("filer")
		cfg.Store = config.StoreMemory
		cfg.RedisAddr = ""

		return withApp(cmd, func(ctx context.Context, a *app) error {
			return runDemo(ctx, cmd, a, tenant, filer)
		})
	},
}

func runDemo(ctx context.Context, cmd *cobra.Command, a *app, tenant, filer string) error {
	out := cmd.OutOrStdout()
	step := func(format string, args ...any) {
		fmt.Fprintf(out, "\n== "+format+"\n", args...)
	}

	step("seeding chart for %s", tenant)
	if _, err := a.svc.Account.SeedStandardChart(ctx, tenant, demoClerk); err != nil {
		return err
	}

	step("assessing %s: tax 1000, penalty 100, interest 50", filer)
	assessment, err := a.svc.Assessment.RecordTaxAssessment(ctx, dto.RecordAssessmentRequest{
		TenantID:       tenant,
		FilerID:        filer,
		ReturnID:       "return-2024-q1",
		TaxAmount:      decimal.NewFromInt(1000),
		PenaltyAmount:  decimal.NewFromInt(100),
		InterestAmount: decimal.NewFromInt(50),
		Period:         "Q1-2024",
		EntryDate:      time.Now().UTC(),
		CreatedBy:      demoClerk,
	})
	if err != nil {
		return err
	}
	if err := printEntry(out, assessment.FilerEntry); err != nil {
		return err
	}

	for i, amount := range []int64{600, 600} {
		step("payment %d of %d by card", i+1, amount)
		res, err := a.svc.Payment.ProcessPayment(ctx, dto.PaymentRequest{
			TenantID:       tenant,
			FilerID:        filer,
			SourceID:       "return-2024-q1",
			Amount:         decimal.NewFromInt(amount),
			Method:         domain.MethodCard,
			MethodDetails:  map[string]string{gateway.DetailCardNumber: "4111111111111111"},
			IdempotencyKey: fmt.Sprintf("demo-payment-%d", i+1),
			ProcessedBy:    demoClerk,
		})
		if err != nil {
			return err
		}
		if err := printPayment(out, res); err != nil {
			return err
		}
	}

	step("declined card")
	declined, err := a.svc.Payment.ProcessPayment(ctx, dto.PaymentRequest{
		TenantID:      tenant,
		FilerID:       filer,
		Amount:        decimal.NewFromInt(25),
		Method:        domain.MethodCard,
		MethodDetails: map[string]string{gateway.DetailCardNumber: "400000000000" + gateway.DeclineSuffix},
		ProcessedBy:   demoClerk,
	})
	if err != nil {
		return err
	}
	if err := printPayment(out, declined); err != nil {
		return err
	}

	step("refunding the overpayment")
	refund, err := a.svc.Refund.RequestRefund(ctx, dto.RequestRefundRequest{
		TenantID:    tenant,
		FilerID:     filer,
		Amount:      decimal.NewFromInt(50),
		Reason:      "overpayment on return-2024-q1",
		RequestedBy: demoClerk,
	})
	if err != nil {
		return err
	}
	if err := printRefund(out, refund); err != nil {
		return err
	}
	id := refund.Refund.ID
	if err := printRefundStep(out)(a.svc.Refund.ApproveRefund(ctx, id, demoTreasurer)); err != nil {
		return err
	}
	if err := printRefundStep(out)(a.svc.Refund.IssueRefund(ctx, id, decimal.Zero, demoTreasurer)); err != nil {
		return err
	}
	if err := printRefundStep(out)(a.svc.Refund.CompleteRefund(ctx, id, demoTreasurer)); err != nil {
		return err
	}

	step("trial balance")
	tb, err := a.svc.Reporting.TrialBalance(ctx, tenant, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := printTrialBalance(out, tb); err != nil {
		return err
	}

	step("reconciliation")
	report, err := a.svc.Reconciliation.GenerateReport(ctx, tenant, "")
	if err != nil {
		return err
	}
	if err := printReconciliation(out, report); err != nil {
		return err
	}

	if a.recorder != nil {
		step("events")
		for _, e := range a.recorder.Events() {
			fmt.Fprintf(out, "%s  %s  %s  %s\n", e.EventType, e.EntityID, e.Reference, e.Amount)
		}
	}
	return nil
}

// printRefundStep prints the result of a refund transition, or passes its error on.
func printRefundStep(out io.Writer) func(*dto.RefundResult, error) error {
	return func(res *dto.RefundResult, err error) error {
		if err != nil {
			return err
		}
		return printRefund(out, res)
	}
}

func init() {
	demoCmd.Flags().String("filer", "filer-42", "filer id used by the scenario")
	rootCmd.AddCommand(demoCmd)
}
