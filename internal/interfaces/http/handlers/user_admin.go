// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sagaline/ecommerce-backend/internal/domain/user"
)

// UserAdminService manages accounts on behalf of admins
type UserAdminService interface {
	SetActive(ctx context.Context, userID uint, active bool) (*user.User, error)
}

// UserAdminHandler handles admin user management endpoints
type UserAdminHandler struct {
	users UserAdminService
}

// NewUserAdminHandler creates a new user admin handler
func NewUserAdminHandler(users UserAdminService) *UserAdminHandler {
	return &UserAdminHandler{users: users}
}

// SetActive handles PUT /admin/users/:id/active?active=
func (h *UserAdminHandler) SetActive(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	active, err := strconv.ParseBool(c.Query("active"))
	if err != nil {
		badRequest(c, "active must be true or false", nil)
		return
	}

	updated, err := h.users.SetActive(c.Request.Context(), userID, active)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "User deactivated successfully"
	if active {
		message = "User activated successfully"
	}
	respond(c, http.StatusOK, message, updated)
}
