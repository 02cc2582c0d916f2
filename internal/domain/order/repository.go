// internal/domain/order/repository.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Repository is the order store
type Repository interface {
	// Create inserts the order together with its items
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uint) (*Order, error)
	FindByUserID(ctx context.Context, userID uint, offset, limit int) ([]Order, int64, error)
	// UpdateStatus moves the order from one status to another, stamping
	// updated_at with at, and reports false when the stored status no longer
	// equals from
	UpdateStatus(ctx context.Context, id uint, from, to Status, at time.Time) (bool, error)
}

// GormRepository implements Repository with gorm
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed order store
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, o *Order) error {
	if err := database.Conn(ctx, r.db).Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *GormRepository) FindByID(ctx context.Context, id uint) (*Order, error) {
	var o Order
	err := database.Conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

func (r *GormRepository) FindByUserID(ctx context.Context, userID uint, offset, limit int) ([]Order, int64, error) {
	db := database.Conn(ctx, r.db)

	var total int64
	if err := db.Model(&Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *GormRepository) UpdateStatus(ctx context.Context, id uint, from, to Status, at time.Time) (bool, error) {
	result := database.Conn(ctx, r.db).
		Model(&Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": at})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update order status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
