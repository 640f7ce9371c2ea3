package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountTotals holds raw debit and credit sums for one account.
type AccountTotals struct {
	AccountNumber string          `json:"accountNumber"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
}

// BalanceFilter narrows a grouped balance query. Zero values mean "no restriction".
type BalanceFilter struct {
	AsOf           *time.Time
	EntityType     EntityType
	EntityID       string
	AccountNumbers []string
}

// AccountBalance is the result of a single-account balance computation.
type AccountBalance struct {
	AccountNumber string          `json:"accountNumber"`
	NormalBalance NormalBalance   `json:"normalBalance"`
	AsOf          time.Time       `json:"asOf"`
	DebitTotal    decimal.Decimal `json:"debitTotal"`
	CreditTotal   decimal.Decimal `json:"creditTotal"`
	NetBalance    decimal.Decimal `json:"netBalance"`
}

// AccountBalanceSummary is one row of a trial balance.
type AccountBalanceSummary struct {
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	AccountType   AccountType     `json:"accountType"`
	DebitBalance  decimal.Decimal `json:"debitBalance"`
	CreditBalance decimal.Decimal `json:"creditBalance"`
	NetBalance    decimal.Decimal `json:"netBalance"`
	NormalBalance NormalBalance   `json:"normalBalance"`
}

// AccountTypeGroup collects the summaries of one account type with its totals.
type AccountTypeGroup struct {
	AccountType  AccountType             `json:"accountType"`
	Accounts     []AccountBalanceSummary `json:"accounts"`
	TotalDebits  decimal.Decimal         `json:"totalDebits"`
	TotalCredits decimal.Decimal         `json:"totalCredits"`
	TotalNet     decimal.Decimal         `json:"totalNet"`
}

// TrialBalanceResult is derived on every request and never persisted.
type TrialBalanceResult struct {
	TenantID     string                  `json:"tenantID"`
	AsOf         time.Time               `json:"asOf"`
	Period       string                  `json:"period,omitempty"`
	Accounts     []AccountBalanceSummary `json:"accounts"`
	Groups       []AccountTypeGroup      `json:"groups"`
	TotalDebits  decimal.Decimal         `json:"totalDebits"`
	TotalCredits decimal.Decimal         `json:"totalCredits"`
	IsBalanced   bool                    `json:"isBalanced"`
	GeneratedAt  time.Time               `json:"generatedAt"`
}

// ReconciliationStatus is BALANCED only when both variances are exactly zero.
type ReconciliationStatus string

const (
	ReconciliationBalanced   ReconciliationStatus = "BALANCED"
	ReconciliationUnbalanced ReconciliationStatus = "UNBALANCED"
)

// DiscrepancyDetail describes a source whose two books disagree.
type DiscrepancyDetail struct {
	SourceID           string          `json:"sourceID"`
	FilerAmount        decimal.Decimal `json:"filerAmount"`
	MunicipalityAmount decimal.Decimal `json:"municipalityAmount"`
	Variance           decimal.Decimal `json:"variance"`
	Description        string          `json:"description"`
}

// ReconciliationResult compares the municipality's book against all filer books.
type ReconciliationResult struct {
	TenantID         string               `json:"tenantID"`
	MunicipalityID   string               `json:"municipalityID"`
	MunicipalityAR   decimal.Decimal      `json:"municipalityAR"`
	MunicipalityCash decimal.Decimal      `json:"municipalityCash"`
	FilerLiabilities decimal.Decimal      `json:"filerLiabilities"`
	FilerPayments    decimal.Decimal      `json:"filerPayments"`
	ARVariance       decimal.Decimal      `json:"arVariance"`
	CashVariance     decimal.Decimal      `json:"cashVariance"`
	Status           ReconciliationStatus `json:"status"`
	Discrepancies    []DiscrepancyDetail  `json:"discrepancies"`
	GeneratedAt      time.Time            `json:"generatedAt"`
}

// SourceTotal is the summed amount of the live entries of one book for one source.
type SourceTotal struct {
	SourceID string
	Amount   decimal.Decimal
}
