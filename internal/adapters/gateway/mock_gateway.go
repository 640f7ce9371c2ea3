// Package gateway holds payment gateway adapters.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/ports"
)

// Method detail keys understood by the mock gateway.
const (
	DetailCardNumber    = "card_number"
	DetailAccountNumber = "account_number"
)

// Test numbers. Any other number is approved.
const (
	DeclineSuffix = "0002"
	TimeoutSuffix = "0119"
)

// ErrGatewayTimeout is returned for numbers ending in TimeoutSuffix.
var ErrGatewayTimeout = errors.New("payment gateway timeout")

// MockGateway is a deterministic gateway keyed on the card or account number,
// for demos and tests.
type MockGateway struct{}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (g *MockGateway) Authorize(_ context.Context, req domain.AuthorizationRequest) (*domain.AuthorizationResult, error) {
	key := DetailCardNumber
	if req.Method == domain.MethodACH {
		key = DetailAccountNumber
	}
	number := strings.TrimSpace(req.MethodDetails[key])
	if number == "" {
		return &domain.AuthorizationResult{
			Status:        domain.PaymentDeclined,
			FailureReason: fmt.Sprintf("missing %s", key),
		}, nil
	}

	switch {
	case strings.HasSuffix(number, TimeoutSuffix):
		return nil, ErrGatewayTimeout
	case strings.HasSuffix(number, DeclineSuffix):
		return &domain.AuthorizationResult{
			Status:                domain.PaymentDeclined,
			ProviderTransactionID: "mock_" + ulid.Make().String(),
			FailureReason:         "insufficient funds",
		}, nil
	}

	id := ulid.Make().String()
	return &domain.AuthorizationResult{
		Status:                domain.PaymentApproved,
		ProviderTransactionID: "mock_" + id,
		AuthorizationCode:     id[len(id)-6:],
	}, nil
}

var _ ports.PaymentGateway = (*MockGateway)(nil)
