// internal/domain/product/entity.go
package product

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents the product entity. Products are deactivated, never deleted.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"not null;size:255" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(19,2);not null" json:"price"`
	SKU         *string         `gorm:"uniqueIndex;size:100" json:"sku"`
	Brand       string          `gorm:"size:100;index" json:"brand"`
	IsActive    bool            `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relationships
	Categories []Category `gorm:"many2many:product_categories;" json:"categories,omitempty"`
}

// Category represents product categories
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	ParentID    *uint     `gorm:"index" json:"parent_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides the table name for Product
func (Product) TableName() string {
	return "products"
}

// TableName overrides the table name for Category
func (Category) TableName() string {
	return "categories"
}

// BeforeSave normalizes the SKU; blank SKUs are stored as NULL
func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.SKU != nil {
		sku := strings.TrimSpace(*p.SKU)
		if sku == "" {
			p.SKU = nil
		} else {
			p.SKU = &sku
		}
	}
	return nil
}

// CategoryNames returns the names of the product's categories
func (p *Product) CategoryNames() []string {
	names := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		names = append(names, c.Name)
	}
	return names
}
