package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database"
	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database/dbtest"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredOrder(userID uint, names ...string) *Order {
	o := &Order{
		OrderNumber:     GenerateOrderNumber(time.Now()),
		UserID:          userID,
		Status:          StatusPending,
		ShippingAddress: "123 Teheran-ro",
		PaymentMethod:   "CARD",
	}
	total := decimal.Zero
	for i, name := range names {
		price := decimal.NewFromInt(int64(100 * (i + 1)))
		o.Items = append(o.Items, OrderItem{
			ProductID:   uint(i + 1),
			ProductName: name,
			Quantity:    1,
			Price:       price,
			Subtotal:    price,
		})
		total = total.Add(price)
	}
	o.TotalAmount = total
	return o
}

func TestGormRepositoryCreateAndFind(t *testing.T) {
	db := dbtest.Open(t, &Order{}, &OrderItem{})
	repo := NewRepository(db)
	ctx := context.Background()

	o := newStoredOrder(1, "Keyboard", "Mouse", "Monitor")
	require.NoError(t, repo.Create(ctx, o))
	require.NotZero(t, o.ID)

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	assert.Equal(t, "Keyboard", got.Items[0].ProductName)
	assert.Equal(t, "Monitor", got.Items[2].ProductName)
	assert.True(t, decimal.NewFromInt(600).Equal(got.TotalAmount))

	_, err = repo.FindByID(ctx, o.ID+100)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGormRepositoryFindByUserIDNewestFirst(t *testing.T) {
	db := dbtest.Open(t, &Order{}, &OrderItem{})
	repo := NewRepository(db)
	ctx := context.Background()

	first := newStoredOrder(1, "A")
	second := newStoredOrder(1, "B")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, newStoredOrder(2, "C")))

	orders, total, err := repo.FindByUserID(ctx, 1, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	require.Len(t, orders[0].Items, 1)

	page, total, err := repo.FindByUserID(ctx, 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)
}

func TestGormRepositoryUpdateStatusComparesAndSets(t *testing.T) {
	db := dbtest.Open(t, &Order{}, &OrderItem{})
	repo := NewRepository(db)
	ctx := context.Background()

	o := newStoredOrder(1, "A")
	require.NoError(t, repo.Create(ctx, o))
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	updated, err := repo.UpdateStatus(ctx, o.ID, StatusPending, StatusConfirmed, at)
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.UpdateStatus(ctx, o.ID, StatusPending, StatusCancelled, at)
	require.NoError(t, err)
	assert.False(t, updated, "stored status is no longer PENDING")

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.True(t, at.Equal(got.UpdatedAt))
}

func TestGormRepositoryCreateRollsBackWithTransaction(t *testing.T) {
	db := dbtest.Open(t, &Order{}, &OrderItem{})
	repo := NewRepository(db)
	tx := database.NewTransactor(db)
	ctx := context.Background()

	boom := errors.New("cart clear failed")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, newStoredOrder(1, "A")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, total, err := repo.FindByUserID(ctx, 1, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}
