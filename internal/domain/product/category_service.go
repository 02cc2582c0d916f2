// internal/domain/product/category_service.go
package product

import (
	"context"
	"strings"

	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
)

// CreateCategory creates a category, optionally under an existing parent
func (s *Service) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*CategoryDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("category name is required")
	}

	if req.ParentID != nil {
		parents, err := s.repo.FindCategoriesByIDs(ctx, []uint{*req.ParentID})
		if err != nil {
			return nil, err
		}
		if len(parents) == 0 {
			return nil, apperrors.NotFound("parent category not found")
		}
	}

	category := &Category{
		Name:        name,
		Description: req.Description,
		ParentID:    req.ParentID,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	dto := ToCategoryDTO(category)
	return &dto, nil
}

// ListCategories returns every category ordered by name
func (s *Service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		dtos = append(dtos, ToCategoryDTO(&categories[i]))
	}
	return dtos, nil
}
