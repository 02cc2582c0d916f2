// internal/interfaces/http/handlers/product.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sagaline/ecommerce-backend/internal/domain/product"
	"github.com/sagaline/ecommerce-backend/internal/pkg/excel"
)

// ProductService is the catalog behind the product endpoints
type ProductService interface {
	CreateProduct(ctx context.Context, req *product.CreateProductRequest) (*product.ProductDTO, error)
	GetProduct(ctx context.Context, id uint) (*product.ProductDTO, error)
	ListProducts(ctx context.Context, page, limit int) (*product.ProductListResponse, error)
	AllProducts(ctx context.Context) ([]product.ProductDTO, error)
	UpdateProduct(ctx context.Context, id uint, req *product.UpdateProductRequest) (*product.ProductDTO, error)
	DeleteProduct(ctx context.Context, id uint) error
	CreateCategory(ctx context.Context, req *product.CreateCategoryRequest) (*product.CategoryDTO, error)
	ListCategories(ctx context.Context) ([]product.CategoryDTO, error)
}

// ProductHandler handles product and category endpoints
type ProductHandler struct {
	products ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(products ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return
	}

	response, err := h.products.ListProducts(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Products retrieved successfully", response)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	p, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Product retrieved successfully", p)
}

// CreateProduct handles POST /products (admin)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req product.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	p, err := h.products.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Product created successfully", p)
}

// UpdateProduct handles PUT /products/:id (admin)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req product.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	p, err := h.products.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Product updated successfully", p)
}

// DeleteProduct handles DELETE /products/:id (admin). The product is deactivated.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetCategories handles GET /products/categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.products.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Categories retrieved successfully", categories)
}

// CreateCategory handles POST /products/categories (admin)
func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var req product.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	category, err := h.products.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Category created successfully", category)
}

// ExportProducts handles GET /products/export (admin)
func (h *ProductHandler) ExportProducts(c *gin.Context) {
	products, err := h.products.AllProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteProducts(&buf, products); err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("products-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, excel.ContentType, buf.Bytes())
}
