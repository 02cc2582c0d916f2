// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sagaline/ecommerce-backend/internal/domain/payment"
)

// PaymentService charges orders
type PaymentService interface {
	ProcessPayment(ctx context.Context, userID, orderID uint, method string) (*payment.Payment, error)
	GetPaymentForOrder(ctx context.Context, userID, orderID uint) (*payment.Payment, error)
}

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	payments PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// ProcessPayment handles POST /orders/:id/payment. The body is optional;
// without a payment_method the order's own method is charged.
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req payment.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request data", err)
		return
	}

	p, err := h.payments.ProcessPayment(c.Request.Context(), userID, orderID, req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}

	switch p.Status {
	case payment.StatusCompleted:
		respond(c, http.StatusCreated, "Payment completed successfully", p)
	case payment.StatusPending:
		respond(c, http.StatusAccepted, "Payment is pending, retry later", p)
	default:
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error": "Payment was declined",
			"data":  p,
		})
	}
}

// GetPayment handles GET /orders/:id/payment
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	p, err := h.payments.GetPaymentForOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Payment retrieved successfully", p)
}
