// internal/interfaces/http/handlers/order.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sagaline/ecommerce-backend/internal/domain/order"
)

// OrderService is the checkout and status workflow behind the order endpoints
type OrderService interface {
	CreateOrder(ctx context.Context, userID uint, req *order.CreateOrderRequest) (*order.View, error)
	GetUserOrders(ctx context.Context, userID uint, page, limit int) (*order.ListResponse, error)
	GetOrder(ctx context.Context, userID, orderID uint) (*order.View, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, status string) (*order.View, error)
}

// OrderHandler handles order endpoints
type OrderHandler struct {
	orders OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	view, err := h.orders.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Order created successfully", view)
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return
	}

	response, err := h.orders.GetUserOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Orders retrieved successfully", response)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	view, err := h.orders.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Order retrieved successfully", view)
}

// UpdateOrderStatus handles PUT /orders/:id/status?status= (admin)
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	status := c.Query("status")
	if status == "" {
		badRequest(c, "status is required", nil)
		return
	}

	view, err := h.orders.UpdateOrderStatus(c.Request.Context(), orderID, status)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Order status updated successfully", view)
}
