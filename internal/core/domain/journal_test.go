package domain_test

import (
	"testing"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSumSidesAndSwap(t *testing.T) {
	lines := []domain.JournalLine{
		domain.DebitLine("6100", decimal.RequireFromString("1000.00"), ""),
		domain.DebitLine("6110", decimal.RequireFromString("100.00"), ""),
		domain.CreditLine("2100", decimal.RequireFromString("1100.00"), ""),
	}

	debits, credits := domain.SumSides(lines)
	assert.True(t, debits.Equal(decimal.RequireFromString("1100")))
	assert.True(t, credits.Equal(debits))

	swapped := lines[0].Swapped()
	assert.True(t, swapped.Debit.IsZero())
	assert.True(t, swapped.Credit.Equal(decimal.RequireFromString("1000")))
	assert.Equal(t, "6100", swapped.AccountNumber)
}

func TestHasValidScale(t *testing.T) {
	assert.True(t, domain.HasValidScale(decimal.RequireFromString("10")))
	assert.True(t, domain.HasValidScale(decimal.RequireFromString("10.5")))
	assert.True(t, domain.HasValidScale(decimal.RequireFromString("10.25")))
	assert.True(t, domain.HasValidScale(decimal.RequireFromString("10.250")))
	assert.False(t, domain.HasValidScale(decimal.RequireFromString("10.255")))
	assert.False(t, domain.HasValidScale(decimal.RequireFromString("0.001")))
}

func TestAccount_NetBalance(t *testing.T) {
	debit := decimal.NewFromInt(300)
	credit := decimal.NewFromInt(120)

	asset := domain.Account{NormalBalance: domain.DebitNormal}
	liability := domain.Account{NormalBalance: domain.CreditNormal}

	assert.True(t, asset.NetBalance(debit, credit).Equal(decimal.NewFromInt(180)))
	assert.True(t, liability.NetBalance(debit, credit).Equal(decimal.NewFromInt(-180)))
}

func TestJournalEntry_IsLive(t *testing.T) {
	originalID := "je-1"
	assert.True(t, domain.JournalEntry{Status: domain.Posted}.IsLive())
	assert.False(t, domain.JournalEntry{Status: domain.Reversed}.IsLive())
	assert.False(t, domain.JournalEntry{Status: domain.Posted, ReversalOf: &originalID}.IsLive())
}
