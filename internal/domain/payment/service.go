// internal/domain/payment/service.go
package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/domain/events"
	"github.com/sagaline/ecommerce-backend/internal/domain/order"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"github.com/sagaline/ecommerce-backend/internal/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// Orders is the part of the order service payments drive
type Orders interface {
	GetOrder(ctx context.Context, userID, orderID uint) (*order.View, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, status string) (*order.View, error)
}

// Emitter hands events to the broker without blocking
type Emitter interface {
	Emit(topic string, event events.Event)
}

// Service handles payment processing
type Service struct {
	repo     Repository
	orders   Orders
	gateway  Gateway
	emitter  Emitter
	currency string
	metrics  metrics.Sink
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewService creates a new payment service
func NewService(repo Repository, orders Orders, gateway Gateway, emitter Emitter, currency string,
	sink metrics.Sink, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:     repo,
		orders:   orders,
		gateway:  gateway,
		emitter:  emitter,
		currency: currency,
		metrics:  sink,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ProcessPayment charges the order total and confirms the order on success.
// A payment already COMPLETED for a still PENDING order is not charged again;
// only the confirmation is retried.
func (s *Service) ProcessPayment(ctx context.Context, userID, orderID uint, method string) (*Payment, error) {
	ov, err := s.orders.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if ov.Status != order.StatusPending {
		return nil, apperrors.InvalidState("order is %s, only PENDING orders can be paid", ov.Status)
	}

	method = strings.TrimSpace(method)
	if method == "" {
		method = ov.PaymentMethod
	}

	p, err := s.pendingPayment(ctx, ov, userID, method)
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(logrus.Fields{
		"payment_id": p.ID,
		"order_id":   orderID,
		"amount":     p.Amount.StringFixed(2),
	})

	if p.Status == StatusCompleted {
		logger.Warn("payment already completed, retrying order confirmation")
		return s.confirm(ctx, p, userID, logger)
	}

	result, err := s.gateway.Charge(ctx, ChargeRequest{
		OrderID:       orderID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentMethod: p.PaymentMethod,
	})
	if err != nil {
		logger.WithError(err).Warn("payment gateway unavailable, payment left pending")
		s.metrics.Inc(metrics.PaymentTransactions, metrics.Tags{"status": "pending"})
		return p, nil
	}

	p.Provider = result.Provider
	p.TransactionID = result.TransactionID
	p.Status = result.Status

	if result.Status != StatusCompleted {
		p.FailureReason = result.Reason
		if err := s.repo.Save(ctx, p); err != nil {
			return nil, err
		}
		s.metrics.Inc(metrics.PaymentTransactions, metrics.Tags{"status": "failed"})
		logger.WithField("reason", result.Reason).Warn("payment declined")
		return p, nil
	}

	paidAt := s.now()
	p.PaidAt = &paidAt
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.metrics.Inc(metrics.PaymentTransactions, metrics.Tags{"status": "completed"})

	return s.confirm(ctx, p, userID, logger)
}

// confirm moves the order of a completed payment to CONFIRMED and emits
// PaymentCompleted. It is safe to call again after a failed attempt.
func (s *Service) confirm(ctx context.Context, p *Payment, userID uint, logger logrus.FieldLogger) (*Payment, error) {
	if _, err := s.orders.UpdateOrderStatus(ctx, p.OrderID, string(order.StatusConfirmed)); err != nil {
		logger.WithError(err).Error("payment completed but order confirmation failed")
		return nil, err
	}

	s.emitter.Emit(events.TopicPaymentEvents,
		events.NewPaymentCompleted(p.ID, p.OrderID, userID, p.Amount, p.PaymentMethod, p.TransactionID))

	logger.WithField("transaction_id", p.TransactionID).Info("payment completed")
	return p, nil
}

// pendingPayment returns the order's payment ready for a charge. A FAILED
// payment from an earlier attempt is reset to PENDING and stored; a
// COMPLETED one is returned as is.
func (s *Service) pendingPayment(ctx context.Context, ov *order.View, userID uint, method string) (*Payment, error) {
	existing, err := s.repo.FindByOrderID(ctx, ov.ID)
	switch {
	case err == nil && existing.Status == StatusCompleted:
		return existing, nil
	case err == nil:
		existing.PaymentMethod = method
		existing.Status = StatusPending
		existing.FailureReason = ""
		if err := s.repo.Save(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, err
	}

	p := &Payment{
		OrderID:       ov.ID,
		UserID:        userID,
		Amount:        ov.TotalAmount,
		Currency:      s.currency,
		PaymentMethod: method,
		Status:        StatusPending,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPaymentForOrder returns the payment of one of the user's orders
func (s *Service) GetPaymentForOrder(ctx context.Context, userID, orderID uint) (*Payment, error) {
	if _, err := s.orders.GetOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}
	return s.repo.FindByOrderID(ctx, orderID)
}
