package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
)

var jsonOutput bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.AmountScale)
}

func printEntry(w io.Writer, e domain.JournalEntry) error {
	if jsonOutput {
		return printJSON(w, e)
	}
	fmt.Fprintf(w, "%s  %s  %s/%s  %s  %s\n", e.EntryNumber, e.EntryDate.Format("2006-01-02"),
		e.EntityType, e.EntityID, e.Status, money(e.TotalAmount))
	fmt.Fprintf(w, "  %s\n", e.Description)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, l := range e.Lines {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t\n", l.LineNumber, l.AccountNumber, money(l.Debit), money(l.Credit))
	}
	return tw.Flush()
}

func printTrialBalance(w io.Writer, tb *domain.TrialBalanceResult) error {
	if jsonOutput {
		return printJSON(w, tb)
	}
	title := "Trial balance as of " + tb.AsOf.Format("2006-01-02")
	if tb.Period != "" {
		title += " (" + tb.Period + ")"
	}
	fmt.Fprintf(w, "%s, tenant %s\n", title, tb.TenantID)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tNAME\tTYPE\tDEBITS\tCREDITS\tNET")
	for _, g := range tb.Groups {
		for _, a := range g.Accounts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", a.AccountNumber, a.AccountName, a.AccountType,
				money(a.DebitBalance), money(a.CreditBalance), money(a.NetBalance))
		}
		fmt.Fprintf(tw, "\t%s total\t\t%s\t%s\t%s\n", strings.ToLower(string(g.AccountType)),
			money(g.TotalDebits), money(g.TotalCredits), money(g.TotalNet))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Debit-normal total %s, credit-normal total %s, balanced: %t\n",
		money(tb.TotalDebits), money(tb.TotalCredits), tb.IsBalanced)
	return nil
}

func printReconciliation(w io.Writer, r *domain.ReconciliationResult) error {
	if jsonOutput {
		return printJSON(w, r)
	}
	fmt.Fprintf(w, "Reconciliation for %s: %s\n", r.MunicipalityID, r.Status)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Municipality AR\t%s\tFiler liabilities\t%s\tVariance\t%s\n",
		money(r.MunicipalityAR), money(r.FilerLiabilities), money(r.ARVariance))
	fmt.Fprintf(tw, "Municipality cash\t%s\tFiler payments\t%s\tVariance\t%s\n",
		money(r.MunicipalityCash), money(r.FilerPayments), money(r.CashVariance))
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, d := range r.Discrepancies {
		fmt.Fprintf(w, "  %s: filer %s, municipality %s (%s)\n", d.SourceID,
			money(d.FilerAmount), money(d.MunicipalityAmount), d.Description)
	}
	return nil
}

func printPayment(w io.Writer, res *dto.PaymentResult) error {
	if jsonOutput {
		return printJSON(w, res)
	}
	p := res.Transaction
	fmt.Fprintf(w, "Payment %s %s %s", p.ID, p.Status, money(p.Amount))
	if res.Replayed {
		fmt.Fprint(w, " (replayed)")
	}
	fmt.Fprintln(w)
	if p.Status != domain.PaymentApproved {
		fmt.Fprintf(w, "  reason: %s\n", p.FailureReason)
		return nil
	}
	a := p.Allocation
	fmt.Fprintf(w, "  tax %s, penalty %s, interest %s, overpayment %s\n",
		money(a.Tax), money(a.Penalty), money(a.Interest), money(a.Overpayment))
	return nil
}

func printRefund(w io.Writer, res *dto.RefundResult) error {
	if jsonOutput {
		return printJSON(w, res)
	}
	r := res.Refund
	fmt.Fprintf(w, "Refund %s %s %s", r.ID, r.Status, money(r.Amount))
	if r.ConfirmationNumber != "" {
		fmt.Fprintf(w, " confirmation %s", r.ConfirmationNumber)
	}
	fmt.Fprintln(w)
	for _, e := range res.Entries {
		fmt.Fprintf(w, "  posted %s on %s/%s\n", e.EntryNumber, e.EntityType, e.EntityID)
	}
	return nil
}
