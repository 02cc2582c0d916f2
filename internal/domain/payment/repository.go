// internal/domain/payment/repository.go
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Repository is the payment store
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	Save(ctx context.Context, p *Payment) error
	FindByOrderID(ctx context.Context, orderID uint) (*Payment, error)
}

// GormRepository implements Repository with gorm
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed payment store
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, p *Payment) error {
	err := database.Conn(ctx, r.db).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Conflict("payment already exists for order")
	}
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *GormRepository) Save(ctx context.Context, p *Payment) error {
	if err := database.Conn(ctx, r.db).Save(p).Error; err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

func (r *GormRepository) FindByOrderID(ctx context.Context, orderID uint) (*Payment, error) {
	var p Payment
	err := database.Conn(ctx, r.db).Where("order_id = ?", orderID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("payment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}
