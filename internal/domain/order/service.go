// internal/domain/order/service.go
package order

import (
	"context"
	"strings"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/domain/cart"
	"github.com/sagaline/ecommerce-backend/internal/domain/events"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"github.com/sagaline/ecommerce-backend/internal/pkg/metrics"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const maxStatusAttempts = 3

// CartStore is the part of the cart store checkout needs
type CartStore interface {
	FindByUserID(ctx context.Context, userID uint) (*cart.Cart, error)
	ClearItems(ctx context.Context, cartID uint) error
}

// Transactor runs fn inside one storage transaction
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Emitter hands events to the broker without blocking
type Emitter interface {
	Emit(topic string, event events.Event)
}

// Service handles order business logic
type Service struct {
	repo    Repository
	carts   CartStore
	tx      Transactor
	emitter Emitter
	metrics metrics.Sink
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewService creates a new order service
func NewService(repo Repository, carts CartStore, tx Transactor, emitter Emitter, sink metrics.Sink, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:    repo,
		carts:   carts,
		tx:      tx,
		emitter: emitter,
		metrics: sink,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder turns the user's cart into a PENDING order and empties the cart
func (s *Service) CreateOrder(ctx context.Context, userID uint, req *CreateOrderRequest) (*View, error) {
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return nil, apperrors.Validation("shipping address is required")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, apperrors.Validation("payment method is required")
	}

	var order *Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.carts.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return apperrors.InvalidState("cart is empty")
		}

		order = s.fromCart(userID, c, req)
		if err := s.repo.Create(ctx, order); err != nil {
			return err
		}
		return s.carts.ClearItems(ctx, c.ID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Inc(metrics.OrdersCreated, metrics.Tags{"status": "created"})
	s.metrics.Add(metrics.Revenue, order.TotalAmount.InexactFloat64(), nil)

	items := make([]events.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, events.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	s.emitter.Emit(events.TopicOrderEvents,
		events.NewOrderCreated(order.ID, order.UserID, order.TotalAmount, string(order.Status), items))

	s.logger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      userID,
		"total_amount": order.TotalAmount.StringFixed(2),
	}).Info("order created")

	return ToView(order), nil
}

func (s *Service) fromCart(userID uint, c *cart.Cart, req *CreateOrderRequest) *Order {
	order := &Order{
		OrderNumber:        GenerateOrderNumber(s.now()),
		UserID:             userID,
		Status:             StatusPending,
		ShippingAddress:    strings.TrimSpace(req.ShippingAddress),
		ShippingCity:       strings.TrimSpace(req.ShippingCity),
		ShippingPostalCode: strings.TrimSpace(req.ShippingPostalCode),
		PaymentMethod:      strings.TrimSpace(req.PaymentMethod),
		Items:              make([]OrderItem, 0, len(c.Items)),
	}

	total := decimal.Zero
	for i := range c.Items {
		line := &c.Items[i]
		subtotal := line.Subtotal()
		total = total.Add(subtotal)
		order.Items = append(order.Items, OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Price:       line.Price,
			Subtotal:    subtotal,
		})
	}
	order.TotalAmount = total.Round(2)
	return order
}

// UpdateOrderStatus sets a new status. Entering CONFIRMED emits OrderConfirmed;
// entering CANCELLED is counted. Any status may follow any other.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID uint, rawStatus string) (*View, error) {
	next, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxStatusAttempts; attempt++ {
		order, err := s.repo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}

		previous := order.Status
		if previous == next {
			return ToView(order), nil
		}

		at := s.now()
		updated, err := s.repo.UpdateStatus(ctx, order.ID, previous, next, at)
		if err != nil {
			return nil, err
		}
		if !updated {
			// lost a race with another writer, re-read and decide again
			continue
		}

		order.Status = next
		order.UpdatedAt = at
		s.afterTransition(order, previous)
		return ToView(order), nil
	}

	return nil, apperrors.Conflict("order %d was modified concurrently", orderID)
}

func (s *Service) afterTransition(order *Order, previous Status) {
	logger := s.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     previous,
		"to":       order.Status,
	})

	switch order.Status {
	case StatusConfirmed:
		s.metrics.Inc(metrics.OrdersCreated, metrics.Tags{"status": "confirmed"})
		s.emitter.Emit(events.TopicOrderEvents,
			events.NewOrderConfirmed(order.ID, order.UserID, string(order.Status)))
		logger.Info("order confirmed")
	case StatusCancelled:
		s.metrics.Inc(metrics.OrdersCreated, metrics.Tags{"status": "cancelled"})
		logger.Info("order cancelled")
	default:
		logger.Info("order status updated")
	}
}

// GetUserOrders returns the user's orders, newest first
func (s *Service) GetUserOrders(ctx context.Context, userID uint, page, limit int) (*ListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := s.repo.FindByUserID(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(orders))
	for i := range orders {
		views = append(views, *ToView(&orders[i]))
	}
	return &ListResponse{
		Orders:     views,
		Pagination: newPagination(page, limit, total),
	}, nil
}

// GetOrder returns one of the user's orders
func (s *Service) GetOrder(ctx context.Context, userID, orderID uint) (*View, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.BelongsTo(userID) {
		return nil, apperrors.Forbidden("order does not belong to user")
	}
	return ToView(order), nil
}

// GetOrderForAdmin returns any order
func (s *Service) GetOrderForAdmin(ctx context.Context, orderID uint) (*View, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToView(order), nil
}
