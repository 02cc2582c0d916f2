// internal/domain/product/service.go
package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"github.com/sagaline/ecommerce-backend/internal/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// Cache is the key-value collaborator for cache-aside reads
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Indexer keeps the search index in step with the catalog
type Indexer interface {
	IndexProduct(ctx context.Context, p ProductDTO) error
	RemoveProduct(ctx context.Context, id uint) error
}

// Service handles product business logic. cache and indexer are optional.
type Service struct {
	repo     Repository
	cache    Cache
	indexer  Indexer
	cacheTTL time.Duration
	metrics  metrics.Sink
	logger   logrus.FieldLogger
}

// NewService creates a new product service
func NewService(repo Repository, cache Cache, indexer Indexer, cacheTTL time.Duration, sink metrics.Sink, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		indexer:  indexer,
		cacheTTL: cacheTTL,
		metrics:  sink,
		logger:   logger,
	}
}

func cacheKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

// CreateProduct creates a new active product
func (s *Service) CreateProduct(ctx context.Context, req *CreateProductRequest) (*ProductDTO, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.Validation("product name is required")
	}
	if req.Price.IsNegative() {
		return nil, apperrors.Validation("price must not be negative")
	}

	sku := strings.TrimSpace(req.SKU)
	if sku != "" {
		exists, err := s.repo.ExistsBySKU(ctx, sku)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperrors.Conflict("SKU already exists")
		}
	}

	categories, err := s.resolveCategories(ctx, req.CategoryIDs)
	if err != nil {
		return nil, err
	}

	product := &Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Brand:       req.Brand,
		IsActive:    true,
		Categories:  categories,
	}
	if sku != "" {
		product.SKU = &sku
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"sku":        sku,
	}).Info("product created")

	dto := ToDTO(product)
	s.index(ctx, dto)
	return &dto, nil
}

// GetProduct returns a product, served from the cache when possible
func (s *Service) GetProduct(ctx context.Context, id uint) (*ProductDTO, error) {
	key := cacheKey(id)

	if s.cache != nil {
		var cached ProductDTO
		found, err := s.cache.GetJSON(ctx, key, &cached)
		switch {
		case err != nil:
			s.logger.WithError(err).WithField("key", key).Warn("product cache read failed")
			s.metrics.Inc(metrics.ProductCache, metrics.Tags{"result": "error"})
		case found:
			s.metrics.Inc(metrics.ProductCache, metrics.Tags{"result": "hit"})
			return &cached, nil
		default:
			s.metrics.Inc(metrics.ProductCache, metrics.Tags{"result": "miss"})
		}
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := ToDTO(product)
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, dto, s.cacheTTL); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("product cache write failed")
		}
	}
	return &dto, nil
}

// FindByID loads the product entity without going through the cache
func (s *Service) FindByID(ctx context.Context, id uint) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

// ListProducts returns a page of active products, newest first
func (s *Service) ListProducts(ctx context.Context, page, limit int) (*ProductListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	products, total, err := s.repo.List(ctx, true, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, ToDTO(&products[i]))
	}

	return &ProductListResponse{
		Products:   dtos,
		Pagination: NewPagination(page, limit, total),
	}, nil
}

// AllProducts returns every product including inactive ones
func (s *Service) AllProducts(ctx context.Context) ([]ProductDTO, error) {
	products, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, ToDTO(&products[i]))
	}
	return dtos, nil
}

// UpdateProduct applies a partial update, evicts the cache and reindexes
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperrors.Validation("product name is required")
		}
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, apperrors.Validation("price must not be negative")
		}
		product.Price = *req.Price
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	var categories []Category
	if req.CategoryIDs != nil {
		if categories, err = s.resolveCategories(ctx, req.CategoryIDs); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, product, categories); err != nil {
		return nil, err
	}

	s.evict(ctx, id)
	dto := ToDTO(product)
	s.index(ctx, dto)
	return &dto, nil
}

// DeleteProduct deactivates a product and drops it from cache and index
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	product.IsActive = false
	if err := s.repo.Update(ctx, product, nil); err != nil {
		return err
	}

	s.evict(ctx, id)
	if s.indexer != nil {
		if err := s.indexer.RemoveProduct(ctx, id); err != nil {
			s.logger.WithError(err).WithField("product_id", id).Warn("failed to remove product from search index")
		}
	}

	s.logger.WithField("product_id", id).Info("product deactivated")
	return nil
}

func (s *Service) resolveCategories(ctx context.Context, ids []uint) ([]Category, error) {
	categories, err := s.repo.FindCategoriesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(categories) != len(uniqueIDs(ids)) {
		return nil, apperrors.NotFound("category not found")
	}
	return categories, nil
}

func (s *Service) evict(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.logger.WithError(err).WithField("product_id", id).Warn("product cache eviction failed")
	}
}

func (s *Service) index(ctx context.Context, dto ProductDTO) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexProduct(ctx, dto); err != nil {
		s.logger.WithError(err).WithField("product_id", dto.ID).Warn("failed to index product")
	}
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
