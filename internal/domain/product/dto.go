// internal/domain/product/dto.go
package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	SKU         string          `json:"sku"`
	Brand       string          `json:"brand"`
	CategoryIDs []uint          `json:"category_ids"`
}

// UpdateProductRequest carries a partial update; nil fields are left unchanged
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Brand       *string          `json:"brand"`
	IsActive    *bool            `json:"is_active"`
	CategoryIDs []uint           `json:"category_ids"`
}

// CreateCategoryRequest represents category creation data
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ParentID    *uint  `json:"parent_id"`
}

// CategoryDTO is the public representation of a category
type CategoryDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    *uint  `json:"parent_id,omitempty"`
}

// ProductDTO is the public representation of a product
type ProductDTO struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	SKU         string          `json:"sku,omitempty"`
	Brand       string          `json:"brand"`
	IsActive    bool            `json:"is_active"`
	Categories  []CategoryDTO   `json:"categories"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Pagination describes a page of results
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination computes page metadata
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// ProductListResponse is a page of products
type ProductListResponse struct {
	Products   []ProductDTO `json:"products"`
	Pagination Pagination   `json:"pagination"`
}

// ToDTO maps a product to its public representation
func ToDTO(p *Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Brand:       p.Brand,
		IsActive:    p.IsActive,
		Categories:  make([]CategoryDTO, 0, len(p.Categories)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.SKU != nil {
		dto.SKU = *p.SKU
	}
	for _, c := range p.Categories {
		dto.Categories = append(dto.Categories, ToCategoryDTO(&c))
	}
	return dto
}

// ToCategoryDTO maps a category to its public representation
func ToCategoryDTO(c *Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ParentID:    c.ParentID,
	}
}
