package payment

import (
	"context"
	"testing"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database/dbtest"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedPayment(orderID uint) *Payment {
	return &Payment{
		OrderID:       orderID,
		UserID:        1,
		Amount:        decimal.NewFromInt(250),
		Currency:      "KRW",
		PaymentMethod: "CARD",
		Status:        StatusPending,
	}
}

func TestGormRepositoryOnePaymentPerOrder(t *testing.T) {
	db := dbtest.Open(t, &Payment{})
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, storedPayment(7)))

	err := repo.Create(ctx, storedPayment(7))
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = repo.FindByOrderID(ctx, 8)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGormRepositorySavePersistsReset(t *testing.T) {
	db := dbtest.Open(t, &Payment{})
	repo := NewRepository(db)
	ctx := context.Background()

	p := storedPayment(7)
	p.Status = StatusFailed
	p.FailureReason = "card declined"
	require.NoError(t, repo.Create(ctx, p))

	p.Status = StatusCompleted
	p.FailureReason = ""
	paidAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	p.PaidAt = &paidAt
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.FindByOrderID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Empty(t, got.FailureReason)
	require.NotNil(t, got.PaidAt)
	assert.True(t, paidAt.Equal(*got.PaidAt))
}
