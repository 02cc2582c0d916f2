// internal/domain/product/repository.go
package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Repository is the catalog store
type Repository interface {
	Create(ctx context.Context, p *Product) error
	// Update saves scalar fields; categories are replaced only when non-nil
	Update(ctx context.Context, p *Product, categories []Category) error
	FindByID(ctx context.Context, id uint) (*Product, error)
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	List(ctx context.Context, activeOnly bool, offset, limit int) ([]Product, int64, error)
	All(ctx context.Context) ([]Product, error)
	FindCategoriesByIDs(ctx context.Context, ids []uint) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context) ([]Category, error)
}

// GormRepository implements Repository with gorm
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed catalog store
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, p *Product) error {
	if err := database.Conn(ctx, r.db).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *GormRepository) Update(ctx context.Context, p *Product, categories []Category) error {
	db := database.Conn(ctx, r.db)
	if err := db.Omit("Categories").Save(p).Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if categories != nil {
		if err := db.Model(p).Association("Categories").Replace(categories); err != nil {
			return fmt.Errorf("failed to update product categories: %w", err)
		}
		p.Categories = categories
	}
	return nil
}

func (r *GormRepository) FindByID(ctx context.Context, id uint) (*Product, error) {
	var p Product
	err := database.Conn(ctx, r.db).Preload("Categories").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (r *GormRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var count int64
	if err := database.Conn(ctx, r.db).Model(&Product{}).Where("sku = ?", sku).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check SKU: %w", err)
	}
	return count > 0, nil
}

func (r *GormRepository) List(ctx context.Context, activeOnly bool, offset, limit int) ([]Product, int64, error) {
	query := database.Conn(ctx, r.db).Model(&Product{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	if err := query.Preload("Categories").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (r *GormRepository) All(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := database.Conn(ctx, r.db).Preload("Categories").Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return products, nil
}

func (r *GormRepository) FindCategoriesByIDs(ctx context.Context, ids []uint) ([]Category, error) {
	var categories []Category
	if len(ids) == 0 {
		return categories, nil
	}
	if err := database.Conn(ctx, r.db).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return categories, nil
}

func (r *GormRepository) CreateCategory(ctx context.Context, c *Category) error {
	if err := database.Conn(ctx, r.db).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *GormRepository) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := database.Conn(ctx, r.db).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
