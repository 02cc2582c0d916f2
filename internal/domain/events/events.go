// internal/domain/events/events.go
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Topics
const (
	TopicUserEvents         = "user-events"
	TopicOrderEvents        = "order-events"
	TopicPaymentEvents      = "payment-events"
	TopicInventoryEvents    = "inventory-events"
	TopicNotificationEvents = "notification-events"
)

// AllTopics lists every topic the system declares
var AllTopics = []string{
	TopicUserEvents,
	TopicOrderEvents,
	TopicPaymentEvents,
	TopicInventoryEvents,
	TopicNotificationEvents,
}

// Event type tags
const (
	TypeOrderCreated     = "OrderCreated"
	TypeOrderConfirmed   = "OrderConfirmed"
	TypeUserRegistered   = "UserRegistered"
	TypePaymentCompleted = "PaymentCompleted"
)

// Event sources
const (
	SourceOrderService   = "order-service"
	SourceUserService    = "user-service"
	SourcePaymentService = "payment-service"
)

// Event is implemented by the variants declared in this package
type Event interface {
	EventHeader() Header
	isEvent()
}

// Header is shared by every event and flattened into its JSON body
type Header struct {
	EventID   uuid.UUID `json:"eventId"`
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

func (h Header) EventHeader() Header { return h }

func (Header) isEvent() {}

func newHeader(eventType, source string) Header {
	return Header{
		EventID:   uuid.New(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
	}
}

// OrderItem is the line item snapshot carried by OrderCreated
type OrderItem struct {
	ProductID uint            `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderCreated is emitted once per successful checkout
type OrderCreated struct {
	Header
	OrderID     uint            `json:"orderId"`
	UserID      uint            `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      string          `json:"status"`
	Items       []OrderItem     `json:"items"`
}

// OrderConfirmed is emitted when an order first moves into CONFIRMED
type OrderConfirmed struct {
	Header
	OrderID uint   `json:"orderId"`
	UserID  uint   `json:"userId"`
	Status  string `json:"status"`
}

// UserRegistered is emitted after a new account is stored
type UserRegistered struct {
	Header
	UserID   uint   `json:"userId"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// PaymentCompleted is emitted after the gateway accepts a charge
type PaymentCompleted struct {
	Header
	PaymentID     uint            `json:"paymentId"`
	OrderID       uint            `json:"orderId"`
	UserID        uint            `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	TransactionID string          `json:"transactionId"`
}

func NewOrderCreated(orderID, userID uint, total decimal.Decimal, status string, items []OrderItem) *OrderCreated {
	return &OrderCreated{
		Header:      newHeader(TypeOrderCreated, SourceOrderService),
		OrderID:     orderID,
		UserID:      userID,
		TotalAmount: total,
		Status:      status,
		Items:       items,
	}
}

func NewOrderConfirmed(orderID, userID uint, status string) *OrderConfirmed {
	return &OrderConfirmed{
		Header:  newHeader(TypeOrderConfirmed, SourceOrderService),
		OrderID: orderID,
		UserID:  userID,
		Status:  status,
	}
}

func NewUserRegistered(userID uint, email, fullName string) *UserRegistered {
	return &UserRegistered{
		Header:   newHeader(TypeUserRegistered, SourceUserService),
		UserID:   userID,
		Email:    email,
		FullName: fullName,
	}
}

func NewPaymentCompleted(paymentID, orderID, userID uint, amount decimal.Decimal, method, transactionID string) *PaymentCompleted {
	return &PaymentCompleted{
		Header:        newHeader(TypePaymentCompleted, SourcePaymentService),
		PaymentID:     paymentID,
		OrderID:       orderID,
		UserID:        userID,
		Amount:        amount,
		PaymentMethod: method,
		TransactionID: transactionID,
	}
}

// Decode parses a published payload back into its concrete variant
func Decode(data []byte) (Event, error) {
	var header Header
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("failed to decode event header: %w", err)
	}

	var event Event
	switch header.EventType {
	case TypeOrderCreated:
		event = &OrderCreated{}
	case TypeOrderConfirmed:
		event = &OrderConfirmed{}
	case TypeUserRegistered:
		event = &UserRegistered{}
	case TypePaymentCompleted:
		event = &PaymentCompleted{}
	default:
		return nil, fmt.Errorf("unknown event type %q", header.EventType)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", header.EventType, err)
	}
	return event, nil
}
