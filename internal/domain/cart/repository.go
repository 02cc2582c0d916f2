// internal/domain/cart/repository.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Repository is the cart store
type Repository interface {
	// FindByUserID loads the user's cart with its items or fails with "cart not found"
	FindByUserID(ctx context.Context, userID uint) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	AddItem(ctx context.Context, item *CartItem) error
	UpdateItem(ctx context.Context, item *CartItem) error
	DeleteItem(ctx context.Context, itemID uint) error
	ClearItems(ctx context.Context, cartID uint) error
}

// GormRepository implements Repository with gorm
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed cart store
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) FindByUserID(ctx context.Context, userID uint) (*Cart, error) {
	var c Cart
	err := database.Conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id") }).
		Where("user_id = ?", userID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("cart not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &c, nil
}

func (r *GormRepository) Create(ctx context.Context, c *Cart) error {
	if err := database.Conn(ctx, r.db).Omit("Items").Create(c).Error; err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

func (r *GormRepository) AddItem(ctx context.Context, item *CartItem) error {
	if err := database.Conn(ctx, r.db).Create(item).Error; err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (r *GormRepository) UpdateItem(ctx context.Context, item *CartItem) error {
	if err := database.Conn(ctx, r.db).Save(item).Error; err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return nil
}

func (r *GormRepository) DeleteItem(ctx context.Context, itemID uint) error {
	if err := database.Conn(ctx, r.db).Delete(&CartItem{}, itemID).Error; err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (r *GormRepository) ClearItems(ctx context.Context, cartID uint) error {
	if err := database.Conn(ctx, r.db).Where("cart_id = ?", cartID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
