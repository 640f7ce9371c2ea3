package dto

import (
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
)

// RegisterAccountRequest defines the data needed to add an account to a tenant's chart.
type RegisterAccountRequest struct {
	TenantID      string               `json:"tenantID" validate:"required"`
	AccountNumber string               `json:"accountNumber" validate:"required,max=20"`
	Name          string               `json:"name" validate:"required"`
	AccountType   domain.AccountType   `json:"accountType" validate:"required,oneof=ASSET LIABILITY REVENUE EXPENSE"`
	NormalBalance domain.NormalBalance `json:"normalBalance" validate:"required,oneof=DEBIT CREDIT"`
	UserID        string               `json:"userID" validate:"required"`
}
