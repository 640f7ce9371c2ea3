package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePeriodEnd(t *testing.T) {
	tests := []struct {
		period string
		year   int
		want   time.Time
	}{
		{"Q1", 2024, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)},
		{"Q2", 2024, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)},
		{"q3", 2024, time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)},
		{"Q4", 2024, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"M2", 2024, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"M2", 2023, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"M11", 2023, time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC)},
		{"YEAR", 2025, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, err := domain.ResolvePeriodEnd(tt.period, tt.year)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePeriodEnd_Invalid(t *testing.T) {
	for _, period := range []string{"", "Q0", "Q5", "M0", "M13", "H1", "Qx", "MONTH"} {
		_, err := domain.ResolvePeriodEnd(period, 2024)
		assert.Error(t, err, period)
	}
	_, err := domain.ResolvePeriodEnd("Q1", 0)
	assert.Error(t, err)
}

func TestRefundStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, domain.RefundRequested.CanTransitionTo(domain.RefundApproved))
	assert.True(t, domain.RefundRequested.CanTransitionTo(domain.RefundRejected))
	assert.True(t, domain.RefundApproved.CanTransitionTo(domain.RefundIssued))
	assert.True(t, domain.RefundIssued.CanTransitionTo(domain.RefundCompleted))

	assert.False(t, domain.RefundRequested.CanTransitionTo(domain.RefundIssued))
	assert.False(t, domain.RefundApproved.CanTransitionTo(domain.RefundCompleted))
	assert.False(t, domain.RefundRejected.CanTransitionTo(domain.RefundApproved))
	assert.True(t, domain.RefundRejected.IsTerminal())
	assert.True(t, domain.RefundCompleted.IsTerminal())
	assert.False(t, domain.RefundIssued.IsTerminal())
}
