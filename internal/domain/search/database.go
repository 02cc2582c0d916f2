// internal/domain/search/database.go
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/sagaline/ecommerce-backend/internal/domain/product"
	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database"
	"gorm.io/gorm"
)

// DatabaseEngine searches the products table directly. It has no index of
// its own, so Index and Delete do nothing.
type DatabaseEngine struct {
	db *gorm.DB
}

// NewDatabaseEngine creates a search engine over the relational store
func NewDatabaseEngine(db *gorm.DB) *DatabaseEngine {
	return &DatabaseEngine{db: db}
}

func (e *DatabaseEngine) Index(ctx context.Context, docs ...Document) error { return nil }

func (e *DatabaseEngine) Delete(ctx context.Context, id uint) error { return nil }

// filtered builds a fresh query over active products matching q
func (e *DatabaseEngine) filtered(ctx context.Context, q Query) *gorm.DB {
	db := database.Conn(ctx, e.db).Model(&product.Product{}).Where("products.is_active = ?", true)

	if q.Text != "" {
		like := "%" + escapeLike(strings.ToLower(q.Text)) + "%"
		db = db.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", like, like)
	}
	if q.Brand != "" {
		db = db.Where("products.brand = ?", q.Brand)
	}
	if q.Category != "" {
		inCategory := database.Conn(ctx, e.db).
			Table("product_categories").
			Select("product_categories.product_id").
			Joins("JOIN categories ON categories.id = product_categories.category_id").
			Where("categories.name = ?", q.Category)
		db = db.Where("products.id IN (?)", inCategory)
	}
	if q.MinPrice != nil {
		db = db.Where("products.price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		db = db.Where("products.price <= ?", *q.MaxPrice)
	}
	return db
}

func (e *DatabaseEngine) Search(ctx context.Context, q Query) (*Result, error) {
	q = q.Normalize()

	var total int64
	if err := e.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count search hits: %w", err)
	}

	var products []product.Product
	err := e.filtered(ctx, q).
		Preload("Categories").
		Order("products.created_at DESC, products.id DESC").
		Offset(q.Offset()).
		Limit(q.Size).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	docs := make([]Document, 0, len(products))
	for i := range products {
		docs = append(docs, FromProduct(product.ToDTO(&products[i])))
	}

	facets, err := e.facets(ctx, q)
	if err != nil {
		return nil, err
	}

	return NewResult(q, docs, total, facets), nil
}

func (e *DatabaseEngine) facets(ctx context.Context, q Query) (Facets, error) {
	var facets Facets

	err := e.filtered(ctx, q).
		Select("products.brand AS value, COUNT(*) AS count").
		Where("products.brand <> ''").
		Group("products.brand").
		Order("count DESC, value").
		Scan(&facets.Brands).Error
	if err != nil {
		return Facets{}, fmt.Errorf("failed to compute brand facets: %w", err)
	}

	err = database.Conn(ctx, e.db).
		Table("categories").
		Select("categories.name AS value, COUNT(*) AS count").
		Joins("JOIN product_categories ON product_categories.category_id = categories.id").
		Where("product_categories.product_id IN (?)", e.filtered(ctx, q).Select("products.id")).
		Group("categories.name").
		Order("count DESC, value").
		Scan(&facets.Categories).Error
	if err != nil {
		return Facets{}, fmt.Errorf("failed to compute category facets: %w", err)
	}

	return facets, nil
}

func (e *DatabaseEngine) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	names := []string{}
	err := database.Conn(ctx, e.db).
		Model(&product.Product{}).
		Where("is_active = ? AND LOWER(name) LIKE ?", true, escapeLike(strings.ToLower(prefix))+"%").
		Distinct().
		Order("name").
		Limit(limit).
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to suggest products: %w", err)
	}
	return names, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
