package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// AccountTypes lists the account types in the order reports present them.
var AccountTypes = []AccountType{Asset, Liability, Revenue, Expense}

func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Revenue, Expense:
		return true
	}
	return false
}

// NormalBalance is the side on which an account's balance increases.
type NormalBalance string

const (
	DebitNormal  NormalBalance = "DEBIT"
	CreditNormal NormalBalance = "CREDIT"
)

func (n NormalBalance) IsValid() bool {
	return n == DebitNormal || n == CreditNormal
}

// Account is one entry of a tenant's chart of accounts. Accounts are never
// deleted, only deactivated.
type Account struct {
	AccountNumber string        `json:"accountNumber"`
	TenantID      string        `json:"tenantID"`
	Name          string        `json:"name"`
	AccountType   AccountType   `json:"accountType"`
	NormalBalance NormalBalance `json:"normalBalance"`
	IsActive      bool          `json:"isActive"`
	AuditFields
}

// NetBalance converts raw debit and credit totals into a balance signed by the
// account's normal side.
func (a Account) NetBalance(debit, credit decimal.Decimal) decimal.Decimal {
	if a.NormalBalance == DebitNormal {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}
