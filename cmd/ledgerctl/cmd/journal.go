package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
)

// parseLine reads ACCOUNT:D|C:AMOUNT[:DESCRIPTION].
func parseLine(spec string) (dto.JournalLineRequest, error) {
	parts := strings.SplitN(spec, ":", 4)
	if len(parts) < 3 {
		return dto.JournalLineRequest{}, fmt.Errorf("line %q: want ACCOUNT:D|C:AMOUNT[:DESCRIPTION]", spec)
	}
	amount, err := decimal.NewFromString(parts[2])
	if err != nil {
		return dto.JournalLineRequest{}, fmt.Errorf("line %q: amount: %w", spec, err)
	}

	line := dto.JournalLineRequest{AccountNumber: parts[0]}
	if len(parts) == 4 {
		line.Description = parts[3]
	}
	switch strings.ToUpper(parts[1]) {
	case "D", "DR", "DEBIT":
		line.Debit = amount
	case "C", "CR", "CREDIT":
		line.Credit = amount
	default:
		return dto.JournalLineRequest{}, fmt.Errorf("line %q: side must be D or C", spec)
	}
	return line, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post a manual journal entry",
	Example: `  ledgerctl post --tenant springfield --entity filer-42 --entity-type FILER \
    --description "opening balance" --line 6100:D:100.00 --line 2100:C:100.00`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, err := requireTenant()
		if err != nil {
			return err
		}
		entity, _ := cmd.Flags().GetString("entity")
		entityType, _ := cmd.Flags().GetString("entity-type")
		description, _ := cmd.Flags().GetString("description")
		sourceType, _ := cmd.Flags().GetString("source-type")
		sourceID, _ := cmd.Flags().GetString("source-id")
		dateStr, _ := cmd.Flags().GetString("date")
		specs, _ := cmd.Flags().GetStringArray("line")

		entryDate, err := parseDate(dateStr)
		if err != nil {
			return err
		}
		lines := make([]dto.JournalLineRequest, 0, len(specs))
		for _, spec := range specs {
			line, err := parseLine(spec)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			entry, err := a.svc.Journal.PostJournalEntry(ctx, dto.PostEntryRequest{
				TenantID:    tenant,
				EntityID:    entity,
				EntityType:  domain.EntityType(strings.ToUpper(entityType)),
				EntryDate:   entryDate,
				Description: description,
				SourceType:  sourceType,
				SourceID:    sourceID,
				CreatedBy:   actorFlag,
				Lines:       lines,
			})
			if err != nil {
				return err
			}
			return printEntry(cmd.OutOrStdout(), *entry)
		})
	},
}

var reverseCmd = &cobra.Command{
	Use:   "reverse ENTRY_ID",
	Short: "Reverse a posted journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			reversal, err := a.svc.Journal.ReverseEntry(ctx, args[0], actorFlag, reason)
			if err != nil {
				return err
			}
			return printEntry(cmd.OutOrStdout(), *reversal)
		})
	},
}

var entriesCmd = &cobra.Command{
	Use:   "entries ENTITY_ID",
	Short: "List the entries of one book, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, err := requireTenant()
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		token, _ := cmd.Flags().GetString("next-token")

		params := dto.ListEntriesParams{Limit: limit}
		if token != "" {
			params.NextToken = &token
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			page, err := a.svc.Journal.ListEntriesForEntity(ctx, tenant, args[0], params)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), page)
			}
			for _, e := range page.Entries {
				if err := printEntry(cmd.OutOrStdout(), e); err != nil {
					return err
				}
			}
			if page.NextToken != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "next token: %s\n", *page.NextToken)
			}
			return nil
		})
	},
}

func init() {
	postCmd.Flags().String("entity", "", "book owner id (filer or municipality)")
	postCmd.Flags().String("entity-type", string(domain.EntityFiler), "FILER or MUNICIPALITY")
	postCmd.Flags().String("description", "", "entry description")
	postCmd.Flags().String("source-type", domain.SourceManual, "source type tag")
	postCmd.Flags().String("source-id", "", "source document id")
	postCmd.Flags().String("date", "", "entry date YYYY-MM-DD (default today)")
	postCmd.Flags().StringArray("line", nil, "ACCOUNT:D|C:AMOUNT[:DESCRIPTION], repeatable")

	reverseCmd.Flags().String("reason", "", "reason for the reversal (required)")

	entriesCmd.Flags().Int("limit", 20, "page size (1-100)")
	entriesCmd.Flags().String("next-token", "", "token from the previous page")

	rootCmd.AddCommand(postCmd, reverseCmd, entriesCmd)
}
