package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/SscSPs/municipal_tax_ledger/internal/adapters/gateway"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
)

func decimalFlag(cmd *cobra.Command, name string) (decimal.Decimal, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Record a tax assessment on the filer and municipality books",
	Example: `  ledgerctl assess --tenant springfield --filer filer-42 --return ret-1 \
    --tax 1000 --penalty 100 --interest 50 --period Q1-2024`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, err := requireTenant()
		if err != nil {
			return err
		}
		filer, _ := cmd.Flags().GetString("filer")
		returnID, _ := cmd.Flags().GetString("return")
		period, _ := cmd.Flags().GetString("period")
		dateStr, _ := cmd.Flags().GetString("date")

		req := dto.RecordAssessmentRequest{
			TenantID:  tenant,
			FilerID:   filer,
			ReturnID:  returnID,
			Period:    period,
			CreatedBy: actorFlag,
		}
		if req.EntryDate, err = parseDate(dateStr); err != nil {
			return err
		}
		if req.TaxAmount, err = decimalFlag(cmd, "tax"); err != nil {
			return err
		}
		if req.PenaltyAmount, err = decimalFlag(cmd, "penalty"); err != nil {
			return err
		}
		if req.InterestAmount, err = decimalFlag(cmd, "interest"); err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			res, err := a.svc.Assessment.RecordTaxAssessment(ctx, req)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), res)
			}
			if err := printEntry(cmd.OutOrStdout(), res.FilerEntry); err != nil {
				return err
			}
			return printEntry(cmd.OutOrStdout(), res.MunicipalityEntry)
		})
	},
}

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Authorize a filer payment and post it to both books",
	Long: `Authorize a payment through the gateway. Approved payments are allocated to
tax, then penalty, then interest; anything left over becomes overpayment credit.
Declined or failed authorizations are recorded without touching the books.`,
	Example: `  ledgerctl pay --tenant springfield --filer filer-42 --amount 1150 \
    --card 4111111111111111 --source ret-1 --idempotency-key pay-ret-1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, err := requireTenant()
		if err != nil {
			return err
		}
		filer, _ := cmd.Flags().GetString("filer")
		source, _ := cmd.Flags().GetString("source")
		card, _ := cmd.Flags().GetString("card")
		achAccount, _ := cmd.Flags().GetString("ach-account")
		key, _ := cmd.Flags().GetString("idempotency-key")
		amount, err := decimalFlag(cmd, "amount")
		if err != nil {
			return err
		}

		req := dto.PaymentRequest{
			TenantID:       tenant,
			FilerID:        filer,
			SourceID:       source,
			Amount:         amount,
			IdempotencyKey: key,
			ProcessedBy:    actorFlag,
		}
		switch {
		case card != "":
			req.Method = domain.MethodCard
			req.MethodDetails = map[string]string{gateway.DetailCardNumber: card}
		case achAccount != "":
			req.Method = domain.MethodACH
			req.MethodDetails = map[string]string{gateway.DetailAccountNumber: achAccount}
		default:
			return fmt.Errorf("one of --card or --ach-account is required")
		}

		if cmd.Flags().Changed("allocate-tax") || cmd.Flags().Changed("allocate-penalty") || cmd.Flags().Changed("allocate-interest") {
			alloc := &dto.AllocationRequest{}
			if alloc.Tax, err = decimalFlag(cmd, "allocate-tax"); err != nil {
				return err
			}
			if alloc.Penalty, err = decimalFlag(cmd, "allocate-penalty"); err != nil {
				return err
			}
			if alloc.Interest, err = decimalFlag(cmd, "allocate-interest"); err != nil {
				return err
			}
			req.Allocation = alloc
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			res, err := a.svc.Payment.ProcessPayment(ctx, req)
			if err != nil {
				return err
			}
			return printPayment(cmd.OutOrStdout(), res)
		})
	},
}

var refundCmd = &cobra.Command{
	Use:   "refund",
	Short: "Drive the refund workflow (request, approve, reject, issue, complete)",
}

var refundRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "Request a refund of the filer's overpayment credit",
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, err := requireTenant()
		if err != nil {
			return err
		}
		filer, _ := cmd.Flags().GetString("filer")
		reason, _ := cmd.Flags().GetString("reason")
		amount, err := decimalFlag(cmd, "amount")
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			res, err := a.svc.Refund.RequestRefund(ctx, dto.RequestRefundRequest{
				TenantID:    tenant,
				FilerID:     filer,
				Amount:      amount,
				Reason:      reason,
				RequestedBy: actorFlag,
			})
			if err != nil {
				return err
			}
			return printRefund(cmd.OutOrStdout(), res)
		})
	},
}

// refundStepCmd builds the commands that only need the refund id and the actor.
func refundStepCmd(use, short string, step func(ctx context.Context, a *app, cmd *cobra.Command, refundID string) (*dto.RefundResult, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " REFUND_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := step(ctx, a, cmd, args[0])
				if err != nil {
					return err
				}
				return printRefund(cmd.OutOrStdout(), res)
			})
		},
	}
}

var (
	refundApproveCmd = refundStepCmd("approve", "Approve a requested refund",
		func(ctx context.Context, a *app, _ *cobra.Command, id string) (*dto.RefundResult, error) {
			return a.svc.Refund.ApproveRefund(ctx, id, actorFlag)
		})
	refundRejectCmd = refundStepCmd("reject", "Reject a requested refund and restore the credit",
		func(ctx context.Context, a *app, cmd *cobra.Command, id string) (*dto.RefundResult, error) {
			reason, _ := cmd.Flags().GetString("reason")
			return a.svc.Refund.RejectRefund(ctx, id, actorFlag, reason)
		})
	refundIssueCmd = refundStepCmd("issue", "Pay out an approved refund",
		func(ctx context.Context, a *app, cmd *cobra.Command, id string) (*dto.RefundResult, error) {
			amount, err := decimalFlag(cmd, "amount")
			if err != nil {
				return nil, err
			}
			return a.svc.Refund.IssueRefund(ctx, id, amount, actorFlag)
		})
	refundCompleteCmd = refundStepCmd("complete", "Confirm that an issued refund arrived",
		func(ctx context.Context, a *app, _ *cobra.Command, id string) (*dto.RefundResult, error) {
			return a.svc.Refund.CompleteRefund(ctx, id, actorFlag)
		})
	refundShowCmd = refundStepCmd("show", "Show a refund request",
		func(ctx context.Context, a *app, _ *cobra.Command, id string) (*dto.RefundResult, error) {
			refund, err := a.svc.Refund.GetRefund(ctx, id)
			if err != nil {
				return nil, err
			}
			return &dto.RefundResult{Refund: *refund}, nil
		})
)

func init() {
	assessCmd.Flags().String("filer", "", "filer id")
	assessCmd.Flags().String("return", "", "tax return id (source id of the entries)")
	assessCmd.Flags().String("tax", "0", "assessed tax")
	assessCmd.Flags().String("penalty", "0", "assessed penalty")
	assessCmd.Flags().String("interest", "0", "assessed interest")
	assessCmd.Flags().String("period", "", "filing period label, e.g. Q1-2024")
	assessCmd.Flags().String("date", "", "entry date YYYY-MM-DD (default today)")

	payCmd.Flags().String("filer", "", "filer id")
	payCmd.Flags().String("amount", "", "payment amount")
	payCmd.Flags().String("source", "", "source id linking the payment to a return (default the payment id)")
	payCmd.Flags().String("card", "", "card number")
	payCmd.Flags().String("ach-account", "", "ACH account number")
	payCmd.Flags().String("idempotency-key", "", "caller key; a retry with the same key is not charged twice")
	payCmd.Flags().String("allocate-tax", "", "explicit allocation to tax")
	payCmd.Flags().String("allocate-penalty", "", "explicit allocation to penalty")
	payCmd.Flags().String("allocate-interest", "", "explicit allocation to interest")

	refundRequestCmd.Flags().String("filer", "", "filer id")
	refundRequestCmd.Flags().String("amount", "", "amount to refund")
	refundRequestCmd.Flags().String("reason", "", "why the refund is requested")
	refundRejectCmd.Flags().String("reason", "", "why the refund is rejected (required)")
	refundIssueCmd.Flags().String("amount", "", "must equal the approved amount (default the approved amount)")

	refundCmd.AddCommand(refundRequestCmd, refundApproveCmd, refundRejectCmd, refundIssueCmd, refundCompleteCmd, refundShowCmd)
	rootCmd.AddCommand(assessCmd, payCmd, refundCmd)
}
