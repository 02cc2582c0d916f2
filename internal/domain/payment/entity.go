// internal/domain/payment/entity.go
package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the payment status
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Payment records the charge for one order
type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"not null;uniqueIndex" json:"order_id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(19,2);not null" json:"amount"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	PaymentMethod string          `gorm:"size:50;not null" json:"payment_method"`
	Provider      string          `gorm:"size:50" json:"provider"`
	TransactionID string          `gorm:"size:100;index" json:"transaction_id"`
	Status        Status          `gorm:"size:20;not null" json:"status"`
	FailureReason string          `gorm:"size:255" json:"failure_reason,omitempty"`
	PaidAt        *time.Time      `json:"paid_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName overrides the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// ProcessPaymentRequest represents a payment attempt for an order
type ProcessPaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}
