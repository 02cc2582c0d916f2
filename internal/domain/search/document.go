// internal/domain/search/document.go
package search

import (
	"strings"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/domain/product"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Document is the indexed form of a product
type Document struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Brand       string    `json:"brand"`
	SKU         string    `json:"sku,omitempty"`
	Categories  []string  `json:"categories"`
	Price       float64   `json:"price"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// FromProduct maps a catalog product to its search document
func FromProduct(p product.ProductDTO) Document {
	categories := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		categories = append(categories, c.Name)
	}
	return Document{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		SKU:         p.SKU,
		Categories:  categories,
		Price:       p.Price.InexactFloat64(),
		Active:      p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

// Query describes a product search. Page is zero-based.
type Query struct {
	Text     string
	Category string
	Brand    string
	MinPrice *float64
	MaxPrice *float64
	Page     int
	Size     int
}

// Normalize trims the text and clamps paging
func (q Query) Normalize() Query {
	q.Text = strings.TrimSpace(q.Text)
	q.Category = strings.TrimSpace(q.Category)
	q.Brand = strings.TrimSpace(q.Brand)
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size < 1 {
		q.Size = defaultPageSize
	}
	if q.Size > maxPageSize {
		q.Size = maxPageSize
	}
	return q
}

// Faceted reports whether any filter beyond free text is set
func (q Query) Faceted() bool {
	return q.Category != "" || q.Brand != "" || q.MinPrice != nil || q.MaxPrice != nil
}

// Offset is the index of the first hit on the requested page
func (q Query) Offset() int {
	return q.Page * q.Size
}

// Facet is one bucket of a facet
type Facet struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Facets groups the result buckets by field
type Facets struct {
	Categories []Facet `json:"categories"`
	Brands     []Facet `json:"brands"`
}

// Result is a page of hits
type Result struct {
	Items      []Document `json:"items"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	Size       int        `json:"size"`
	TotalPages int        `json:"total_pages"`
	Facets     Facets     `json:"facets"`
}

// NewResult assembles a page of hits for q
func NewResult(q Query, items []Document, total int64, facets Facets) *Result {
	if items == nil {
		items = []Document{}
	}
	return &Result{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		Size:       q.Size,
		TotalPages: int((total + int64(q.Size) - 1) / int64(q.Size)),
		Facets:     facets,
	}
}

