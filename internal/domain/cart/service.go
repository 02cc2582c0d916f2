// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"

	"github.com/sagaline/ecommerce-backend/internal/domain/product"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"github.com/sirupsen/logrus"
)

// Transactor runs fn inside one storage transaction
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductLookup resolves the product being added
type ProductLookup interface {
	FindByID(ctx context.Context, id uint) (*product.Product, error)
}

// Service handles cart business logic
type Service struct {
	repo     Repository
	products ProductLookup
	tx       Transactor
	logger   logrus.FieldLogger
}

// NewService creates a new cart service
func NewService(repo Repository, products ProductLookup, tx Transactor, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:     repo,
		products: products,
		tx:       tx,
		logger:   logger,
	}
}

// AddItem adds quantity of a product, merging into an existing line for the same product
func (s *Service) AddItem(ctx context.Context, userID, productID uint, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}

	var view *View
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return apperrors.NotFound("product not found")
		}

		c, err := s.getOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		if item := c.ItemByProduct(productID); item != nil {
			item.Quantity += quantity
			if err := s.repo.UpdateItem(ctx, item); err != nil {
				return err
			}
		} else {
			item := CartItem{
				CartID:      c.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    quantity,
				Price:       p.Price,
			}
			if err := s.repo.AddItem(ctx, &item); err != nil {
				return err
			}
			c.Items = append(c.Items, item)
		}

		view = ToView(c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	}).Debug("item added to cart")

	return view, nil
}

// GetCart returns the user's cart, or an empty view if none exists yet
func (s *Service) GetCart(ctx context.Context, userID uint) (*View, error) {
	c, err := s.repo.FindByUserID(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return ToView(&Cart{UserID: userID}), nil
	}
	if err != nil {
		return nil, err
	}
	return ToView(c), nil
}

// UpdateItemQuantity overwrites a line's quantity; zero or less removes the line
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, itemID uint, quantity int) (*View, error) {
	var view *View
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}

		item := c.ItemByID(itemID)
		if item == nil {
			return apperrors.NotFound("cart item not found")
		}

		if quantity <= 0 {
			if err := s.repo.DeleteItem(ctx, itemID); err != nil {
				return err
			}
			c.removeItem(itemID)
		} else {
			item.Quantity = quantity
			if err := s.repo.UpdateItem(ctx, item); err != nil {
				return err
			}
		}

		view = ToView(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// RemoveItem deletes one line from the user's cart
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uint) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if c.ItemByID(itemID) == nil {
			return apperrors.NotFound("cart item not found")
		}
		return s.repo.DeleteItem(ctx, itemID)
	})
}

// ClearCart empties the user's cart, keeping the cart row
func (s *Service) ClearCart(ctx context.Context, userID uint) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		return s.repo.ClearItems(ctx, c.ID)
	})
}

func (s *Service) getOrCreate(ctx context.Context, userID uint) (*Cart, error) {
	c, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	c = &Cart{UserID: userID}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
