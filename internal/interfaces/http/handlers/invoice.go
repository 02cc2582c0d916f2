// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sagaline/ecommerce-backend/internal/domain/order"
	"github.com/sagaline/ecommerce-backend/internal/pkg/pdf"
)

// OrderReader loads an order owned by the caller
type OrderReader interface {
	GetOrder(ctx context.Context, userID, orderID uint) (*order.View, error)
}

// InvoiceRenderer builds invoices for orders
type InvoiceRenderer interface {
	BuildInvoiceData(view *order.View) pdf.InvoiceData
	GenerateInvoice(view *order.View) ([]byte, error)
}

// InvoiceHandler handles invoice-related endpoints
type InvoiceHandler struct {
	orders   OrderReader
	invoices InvoiceRenderer
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(orders OrderReader, invoices InvoiceRenderer) *InvoiceHandler {
	return &InvoiceHandler{orders: orders, invoices: invoices}
}

// GenerateInvoice handles GET /orders/:id/invoice
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	view, ok := h.loadOrder(c)
	if !ok {
		return
	}

	pdfBytes, err := h.invoices.GenerateInvoice(view)
	if err != nil {
		respondError(c, fmt.Errorf("failed to generate invoice: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", view.OrderNumber))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// GetInvoiceData handles GET /orders/:id/invoice/data (for frontend preview)
func (h *InvoiceHandler) GetInvoiceData(c *gin.Context) {
	view, ok := h.loadOrder(c)
	if !ok {
		return
	}

	respond(c, http.StatusOK, "Invoice data retrieved successfully", h.invoices.BuildInvoiceData(view))
}

func (h *InvoiceHandler) loadOrder(c *gin.Context) (*order.View, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	view, err := h.orders.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return view, true
}
