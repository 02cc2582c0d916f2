// internal/domain/notification/handler.go
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/domain/events"
	"github.com/sagaline/ecommerce-backend/internal/domain/order"
	"github.com/sagaline/ecommerce-backend/internal/domain/user"
	"github.com/sagaline/ecommerce-backend/internal/pkg/email"
	"github.com/sagaline/ecommerce-backend/internal/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// Notification kinds pushed to clients
const (
	KindOrderCreated     = "order_created"
	KindOrderConfirmed   = "order_confirmed"
	KindPaymentCompleted = "payment_completed"
)

// Notification is the JSON payload pushed over websocket
type Notification struct {
	Kind      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	OrderID   uint      `json:"order_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Pusher fans a payload out to a user's live connections and reports how many received it
type Pusher interface {
	SendToUser(userID uint, payload interface{}) int
}

// Mailer sends transactional emails
type Mailer interface {
	SendOrderConfirmationEmail(ctx context.Context, data email.OrderConfirmationData) error
	SendOrderStatusUpdateEmail(ctx context.Context, data email.OrderStatusUpdateData) error
	SendWelcomeEmail(ctx context.Context, userEmail, userName string) error
}

// Users resolves recipients
type Users interface {
	GetProfile(ctx context.Context, userID uint) (*user.User, error)
}

// Orders loads order details for email bodies
type Orders interface {
	GetOrderForAdmin(ctx context.Context, orderID uint) (*order.View, error)
}

// Handler reacts to domain events. pusher and mailer are optional.
type Handler struct {
	pusher  Pusher
	mailer  Mailer
	users   Users
	orders  Orders
	metrics metrics.Sink
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewHandler creates a notification handler
func NewHandler(pusher Pusher, mailer Mailer, users Users, orders Orders, sink metrics.Sink, logger logrus.FieldLogger) *Handler {
	return &Handler{
		pusher:  pusher,
		mailer:  mailer,
		users:   users,
		orders:  orders,
		metrics: sink,
		logger:  logger,
		now:     time.Now,
	}
}

// Handle implements events.Handler. Delivery failures are logged and never returned.
func (h *Handler) Handle(ctx context.Context, topic string, event events.Event) error {
	header := event.EventHeader()
	h.metrics.Inc(metrics.EventsConsumed, metrics.Tags{"topic": topic, "event_type": header.EventType})

	log := h.logger.WithFields(logrus.Fields{
		"topic":      topic,
		"event_id":   header.EventID,
		"event_type": header.EventType,
	})

	switch e := event.(type) {
	case *events.OrderCreated:
		log.WithFields(logrus.Fields{"order_id": e.OrderID, "user_id": e.UserID}).Info("order created event received")
		h.push(e.UserID, Notification{
			Kind:      KindOrderCreated,
			Title:     "Order placed",
			Message:   fmt.Sprintf("Your order #%d has been placed. Total: %s", e.OrderID, e.TotalAmount.StringFixed(2)),
			OrderID:   e.OrderID,
			Status:    e.Status,
			Timestamp: h.now(),
		})
		h.sendOrderConfirmation(ctx, log, e)

	case *events.OrderConfirmed:
		log.WithFields(logrus.Fields{"order_id": e.OrderID, "user_id": e.UserID}).Info("order confirmed event received")
		h.push(e.UserID, Notification{
			Kind:      KindOrderConfirmed,
			Title:     "Order confirmed",
			Message:   fmt.Sprintf("Your order #%d has been confirmed", e.OrderID),
			OrderID:   e.OrderID,
			Status:    e.Status,
			Timestamp: h.now(),
		})
		h.sendStatusUpdate(ctx, log, e)

	case *events.PaymentCompleted:
		log.WithFields(logrus.Fields{"order_id": e.OrderID, "payment_id": e.PaymentID}).Info("payment completed event received")
		h.push(e.UserID, Notification{
			Kind:      KindPaymentCompleted,
			Title:     "Payment received",
			Message:   fmt.Sprintf("Payment of %s for order #%d was received", e.Amount.StringFixed(2), e.OrderID),
			OrderID:   e.OrderID,
			Timestamp: h.now(),
		})

	case *events.UserRegistered:
		log.WithField("user_id", e.UserID).Info("user registered event received")
		if h.mailer != nil && e.Email != "" {
			err := h.mailer.SendWelcomeEmail(ctx, e.Email, e.FullName)
			h.recordEmail(log, err)
		}

	default:
		log.Debug("ignoring event")
	}
	return nil
}

func (h *Handler) push(userID uint, n Notification) {
	if h.pusher == nil {
		return
	}
	delivered := h.pusher.SendToUser(userID, n)
	if delivered > 0 {
		h.metrics.Add(metrics.NotificationsDelivered, float64(delivered), metrics.Tags{"channel": "websocket", "result": "sent"})
	}
}

func (h *Handler) sendOrderConfirmation(ctx context.Context, log logrus.FieldLogger, e *events.OrderCreated) {
	recipient, ok := h.recipient(ctx, log, e.UserID)
	if !ok {
		return
	}

	data := email.OrderConfirmationData{
		EmailTemplateData: email.EmailTemplateData{UserName: recipient.GetDisplayName(), UserEmail: recipient.Email},
		OrderNumber:       fmt.Sprintf("#%d", e.OrderID),
		OrderDate:         e.Timestamp.Format("January 2, 2006"),
		OrderTotal:        e.TotalAmount.StringFixed(2),
	}

	if h.orders != nil {
		view, err := h.orders.GetOrderForAdmin(ctx, e.OrderID)
		if err != nil {
			log.WithError(err).Warn("failed to load order for confirmation email")
		} else {
			data.OrderNumber = view.OrderNumber
			data.PaymentMethod = view.PaymentMethod
			data.ShippingTo = joinNonEmpty(view.ShippingAddress, view.ShippingCity, view.ShippingPostalCode)
			for _, item := range view.Items {
				data.Items = append(data.Items, email.OrderItem{
					Name:     item.ProductName,
					Quantity: item.Quantity,
					Price:    item.Price.StringFixed(2),
					Subtotal: item.Subtotal.StringFixed(2),
				})
			}
		}
	}

	h.recordEmail(log, h.mailer.SendOrderConfirmationEmail(ctx, data))
}

func (h *Handler) sendStatusUpdate(ctx context.Context, log logrus.FieldLogger, e *events.OrderConfirmed) {
	recipient, ok := h.recipient(ctx, log, e.UserID)
	if !ok {
		return
	}

	orderNumber := fmt.Sprintf("#%d", e.OrderID)
	if h.orders != nil {
		if view, err := h.orders.GetOrderForAdmin(ctx, e.OrderID); err == nil {
			orderNumber = view.OrderNumber
		}
	}

	h.recordEmail(log, h.mailer.SendOrderStatusUpdateEmail(ctx, email.OrderStatusUpdateData{
		EmailTemplateData: email.EmailTemplateData{UserName: recipient.GetDisplayName(), UserEmail: recipient.Email},
		OrderNumber:       orderNumber,
		Status:            e.Status,
		StatusMessage:     "Your payment was received and the order is being prepared.",
	}))
}

// recipient returns the user to email, or false when email is disabled or unresolvable
func (h *Handler) recipient(ctx context.Context, log logrus.FieldLogger, userID uint) (*user.User, bool) {
	if h.mailer == nil || h.users == nil {
		return nil, false
	}
	u, err := h.users.GetProfile(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("failed to resolve email recipient")
		return nil, false
	}
	if u.Email == "" {
		return nil, false
	}
	return u, true
}

func (h *Handler) recordEmail(log logrus.FieldLogger, err error) {
	if err != nil {
		log.WithError(err).Warn("failed to send notification email")
		h.metrics.Inc(metrics.NotificationsDelivered, metrics.Tags{"channel": "email", "result": "failed"})
		return
	}
	h.metrics.Inc(metrics.NotificationsDelivered, metrics.Tags{"channel": "email", "result": "sent"})
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}
