// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
)

// Status represents the order status
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus maps a raw value onto a known status
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return s, nil
	default:
		return "", apperrors.Validation("unknown order status %q", raw)
	}
}

// Order represents a placed order. Items are immutable after creation.
type Order struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	OrderNumber        string          `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	Status             Status          `gorm:"not null;size:20;index" json:"status"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(19,2);not null" json:"total_amount"`
	ShippingAddress    string          `gorm:"size:500;not null" json:"shipping_address"`
	ShippingCity       string          `gorm:"size:100" json:"shipping_city"`
	ShippingPostalCode string          `gorm:"size:20" json:"shipping_postal_code"`
	PaymentMethod      string          `gorm:"size:50;not null" json:"payment_method"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is a frozen copy of a cart line
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"size:255;not null" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(19,2);not null" json:"price"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(19,2);not null" json:"subtotal"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// GenerateOrderNumber generates a unique order number
func GenerateOrderNumber(now time.Time) string {
	// Format: ORD-YYYYMMDD-XXXXXXXX
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

// TotalItems sums item quantities
func (o *Order) TotalItems() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// BelongsTo reports whether userID placed the order
func (o *Order) BelongsTo(userID uint) bool {
	return o.UserID == userID
}
