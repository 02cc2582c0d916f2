package cart

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sagaline/ecommerce-backend/internal/domain/product"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu     sync.Mutex
	nextID uint
	carts  map[uint]*Cart // by user id
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{carts: map[uint]*Cart{}}
}

func (r *memoryRepo) id() uint {
	r.nextID++
	return r.nextID
}

func (r *memoryRepo) FindByUserID(ctx context.Context, userID uint) (*Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, apperrors.NotFound("cart not found")
	}
	cp := *c
	cp.Items = append([]CartItem(nil), c.Items...)
	return &cp, nil
}

func (r *memoryRepo) Create(ctx context.Context, c *Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	cp := *c
	r.carts[c.UserID] = &cp
	return nil
}

func (r *memoryRepo) cartByID(cartID uint) *Cart {
	for _, c := range r.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (r *memoryRepo) AddItem(ctx context.Context, item *CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.cartByID(item.CartID)
	if c.ItemByProduct(item.ProductID) != nil {
		return assert.AnError
	}
	item.ID = r.id()
	c.Items = append(c.Items, *item)
	return nil
}

func (r *memoryRepo) UpdateItem(ctx context.Context, item *CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.cartByID(item.CartID)
	*c.ItemByID(item.ID) = *item
	return nil
}

func (r *memoryRepo) DeleteItem(ctx context.Context, itemID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.carts {
		c.removeItem(itemID)
	}
	return nil
}

func (r *memoryRepo) ClearItems(ctx context.Context, cartID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cartByID(cartID).Items = nil
	return nil
}

type productTable map[uint]*product.Product

func (p productTable) FindByID(ctx context.Context, id uint) (*product.Product, error) {
	found, ok := p[id]
	if !ok {
		return nil, apperrors.NotFound("product not found")
	}
	cp := *found
	return &cp, nil
}

type inlineTx struct{ calls int }

func (t *inlineTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

func newTestService() (*Service, *memoryRepo, productTable) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	products := productTable{
		1: {ID: 1, Name: "Galaxy Book", Price: decimal.NewFromInt(1500000), IsActive: true},
		2: {ID: 2, Name: "Mouse", Price: decimal.RequireFromString("19900.50"), IsActive: true},
		3: {ID: 3, Name: "Retired", Price: decimal.NewFromInt(10), IsActive: false},
	}
	repo := newMemoryRepo()
	return NewService(repo, products, &inlineTx{}, logger), repo, products
}

func TestAddItemCreatesCartAndCapturesPrice(t *testing.T) {
	svc, _, _ := newTestService()

	view, err := svc.AddItem(context.Background(), 7, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, uint(7), view.UserID)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Galaxy Book", view.Items[0].ProductName)
	assert.True(t, decimal.NewFromInt(1500000).Equal(view.Items[0].Price))
	assert.True(t, decimal.NewFromInt(3000000).Equal(view.TotalAmount))
	assert.Equal(t, 2, view.TotalItems)
}

func TestAddItemAccumulatesQuantity(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 7, 1, 2)
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, 7, 1, 3)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, 5, view.TotalItems)
}

func TestAddItemKeepsCapturedPrice(t *testing.T) {
	svc, _, products := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 7, 1, 1)
	require.NoError(t, err)

	products[1].Price = decimal.NewFromInt(999)
	view, err := svc.AddItem(ctx, 7, 1, 1)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(1500000).Equal(view.Items[0].Price))
	assert.True(t, decimal.NewFromInt(3000000).Equal(view.TotalAmount))
}

func TestAddItemErrors(t *testing.T) {
	tests := []struct {
		name      string
		productID uint
		quantity  int
		kind      error
	}{
		{"unknown product", 99, 1, apperrors.ErrNotFound},
		{"inactive product", 3, 1, apperrors.ErrNotFound},
		{"zero quantity", 1, 0, apperrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			_, err := svc.AddItem(context.Background(), 7, tt.productID, tt.quantity)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestGetCartWithoutCartIsEmpty(t *testing.T) {
	svc, _, _ := newTestService()

	view, err := svc.GetCart(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.TotalAmount.IsZero())
	assert.Equal(t, 0, view.TotalItems)
}

func TestUpdateItemQuantity(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 7, 1, 1)
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, 7, 2, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	mouse := view.Items[1]

	view, err = svc.UpdateItemQuantity(ctx, 7, mouse.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[1].Quantity)
	assert.True(t, decimal.RequireFromString("79602").Equal(view.Items[1].Subtotal))

	view, err = svc.UpdateItemQuantity(ctx, 7, mouse.ID, 0)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	stored, err := svc.GetCart(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1)
}

func TestUpdateItemQuantityErrors(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.UpdateItemQuantity(ctx, 7, 1, 2)
	assert.EqualError(t, err, "cart not found")

	_, err = svc.AddItem(ctx, 7, 1, 1)
	require.NoError(t, err)
	other, err := svc.AddItem(ctx, 8, 2, 1)
	require.NoError(t, err)

	_, err = svc.UpdateItemQuantity(ctx, 7, other.Items[0].ID, 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.EqualError(t, err, "cart item not found")
}

func TestRemoveItem(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	assert.EqualError(t, svc.RemoveItem(ctx, 7, 1), "cart not found")

	view, err := svc.AddItem(ctx, 7, 1, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, 7, view.Items[0].ID))
	assert.ErrorIs(t, svc.RemoveItem(ctx, 7, view.Items[0].ID), apperrors.ErrNotFound)

	after, err := svc.GetCart(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, after.Items)
}

func TestClearCart(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.ClearCart(ctx, 7), apperrors.ErrNotFound)

	_, err := svc.AddItem(ctx, 7, 1, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 7, 2, 3)
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, 7))

	c, err := repo.FindByUserID(ctx, 7)
	require.NoError(t, err, "cart row survives clearing")
	assert.Empty(t, c.Items)
}
