// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sagaline/ecommerce-backend/internal/interfaces/http/handlers"
	"github.com/sagaline/ecommerce-backend/internal/interfaces/http/middleware"
)

// Handlers bundles every endpoint group mounted under /api
type Handlers struct {
	Auth      *handlers.AuthHandler
	Products  *handlers.ProductHandler
	Search    *handlers.SearchHandler
	Cart      *handlers.CartHandler
	Orders    *handlers.OrderHandler
	Invoices  *handlers.InvoiceHandler
	Payments  *handlers.PaymentHandler
	UserAdmin *handlers.UserAdminHandler

	// Notifications upgrades to a websocket and authenticates on its own
	Notifications gin.HandlerFunc
}

// SetupRoutes mounts all API routes on rg
func SetupRoutes(rg *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	authRequired := middleware.AuthMiddleware(tokens)
	adminOnly := middleware.AdminMiddleware()

	SetupAuthRoutes(rg, h.Auth, authRequired)
	SetupProductRoutes(rg, h.Products, authRequired, adminOnly)
	SetupSearchRoutes(rg, h.Search, authRequired, adminOnly)
	SetupCartRoutes(rg, h.Cart, authRequired)
	SetupOrderRoutes(rg, h, authRequired, adminOnly)
	SetupAdminRoutes(rg, h.UserAdmin, authRequired, adminOnly)

	if h.Notifications != nil {
		rg.GET("/notifications/ws", h.Notifications)
	}
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler, authRequired gin.HandlerFunc) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.GET("/me", authRequired, h.Me)
	}
}

// SetupProductRoutes sets up product and category routes
func SetupProductRoutes(rg *gin.RouterGroup, h *handlers.ProductHandler, authRequired, adminOnly gin.HandlerFunc) {
	products := rg.Group("/products")
	{
		products.GET("", h.GetProducts)
		products.GET("/categories", h.GetCategories)
		products.GET("/:id", h.GetProduct)

		admin := products.Group("", authRequired, adminOnly)
		{
			admin.POST("", h.CreateProduct)
			admin.PUT("/:id", h.UpdateProduct)
			admin.DELETE("/:id", h.DeleteProduct)
			admin.POST("/categories", h.CreateCategory)
			admin.GET("/export", h.ExportProducts)
		}
	}
}

// SetupSearchRoutes sets up search routes
func SetupSearchRoutes(rg *gin.RouterGroup, h *handlers.SearchHandler, authRequired, adminOnly gin.HandlerFunc) {
	search := rg.Group("/search")
	{
		search.GET("", h.Search)
		search.GET("/autocomplete", h.Autocomplete)
		search.POST("/reindex", authRequired, adminOnly, h.Reindex)
	}
}

// SetupCartRoutes sets up cart routes. Every cart route requires authentication.
func SetupCartRoutes(rg *gin.RouterGroup, h *handlers.CartHandler, authRequired gin.HandlerFunc) {
	cart := rg.Group("/cart", authRequired)
	{
		cart.GET("", h.GetCart)
		cart.DELETE("", h.ClearCart)
		cart.POST("/items", h.AddItem)
		cart.PUT("/items/:id", h.UpdateItem)
		cart.DELETE("/items/:id", h.RemoveItem)
	}
}

// SetupOrderRoutes sets up order, invoice and payment routes
func SetupOrderRoutes(rg *gin.RouterGroup, h Handlers, authRequired, adminOnly gin.HandlerFunc) {
	orders := rg.Group("/orders", authRequired)
	{
		orders.POST("", h.Orders.CreateOrder)
		orders.GET("", h.Orders.GetOrders)
		orders.GET("/:id", h.Orders.GetOrder)
		orders.PUT("/:id/status", adminOnly, h.Orders.UpdateOrderStatus)

		orders.GET("/:id/invoice", h.Invoices.GenerateInvoice)
		orders.GET("/:id/invoice/data", h.Invoices.GetInvoiceData)

		orders.POST("/:id/payment", h.Payments.ProcessPayment)
		orders.GET("/:id/payment", h.Payments.GetPayment)
	}
}

// SetupAdminRoutes sets up admin user management routes
func SetupAdminRoutes(rg *gin.RouterGroup, h *handlers.UserAdminHandler, authRequired, adminOnly gin.HandlerFunc) {
	admin := rg.Group("/admin", authRequired, adminOnly)
	{
		admin.PUT("/users/:id/active", h.SetActive)
	}
}
