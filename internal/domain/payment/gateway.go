// internal/domain/payment/gateway.go
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeRequest is what the gateway is asked to collect
type ChargeRequest struct {
	OrderID       uint
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod string
}

// ChargeResult is the gateway's answer
type ChargeResult struct {
	Provider      string
	TransactionID string
	Status        Status
	Reason        string
}

// Gateway collects money from an external provider
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// MockGateway approves every positive charge with a generated transaction id
type MockGateway struct {
	provider string
}

// NewMockGateway creates a gateway that reports itself as provider
func NewMockGateway(provider string) *MockGateway {
	if provider == "" {
		provider = "toss"
	}
	return &MockGateway{provider: provider}
}

func (g *MockGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return &ChargeResult{
			Provider: g.provider,
			Status:   StatusFailed,
			Reason:   fmt.Sprintf("amount %s is not chargeable", req.Amount.StringFixed(2)),
		}, nil
	}
	return &ChargeResult{
		Provider:      g.provider,
		TransactionID: strings.ToUpper(g.provider) + "_" + uuid.NewString(),
		Status:        StatusCompleted,
	}, nil
}
