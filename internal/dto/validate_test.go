package dto

import (
	"testing"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidate_PostEntryRequest(t *testing.T) {
	req := PostEntryRequest{
		TenantID:    "springfield",
		EntityID:    "filer-1",
		EntityType:  domain.EntityFiler,
		Description: "manual adjustment",
		SourceType:  domain.SourceManual,
		CreatedBy:   "clerk",
	}
	assert.NoError(t, Validate(req))

	req.EntityType = "PARTNER"
	err := Validate(req)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "EntityType")

	req.EntityType = domain.EntityMunicipality
	req.CreatedBy = ""
	assert.ErrorIs(t, Validate(req), apperrors.ErrValidation)
}

func TestValidate_RegisterAccountRequest(t *testing.T) {
	req := RegisterAccountRequest{
		TenantID:      "springfield",
		AccountNumber: "1000",
		Name:          "Filer Cash",
		AccountType:   domain.Asset,
		NormalBalance: domain.DebitNormal,
		UserID:        "admin",
	}
	assert.NoError(t, Validate(req))

	req.AccountType = "EQUITY"
	assert.ErrorIs(t, Validate(req), apperrors.ErrValidation)

	req.AccountType = domain.Revenue
	req.NormalBalance = "SIDEWAYS"
	assert.ErrorIs(t, Validate(req), apperrors.ErrValidation)
}

func TestPostEntryRequest_WithReversalOf(t *testing.T) {
	req := PostEntryRequest{}
	assert.Nil(t, req.ReversalOf())

	rev := req.WithReversalOf("je-1")
	if assert.NotNil(t, rev.ReversalOf()) {
		assert.Equal(t, "je-1", *rev.ReversalOf())
	}
	assert.Nil(t, req.ReversalOf())
}
