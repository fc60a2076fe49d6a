package api

import (
	"shopbot-api/internal/config"
	"shopbot-api/internal/middleware"
	"shopbot-api/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Server holds the wired services behind the HTTP handlers
type Server struct {
	db         *gorm.DB
	checkout   *services.CheckoutService
	reconciler *services.ReconcilerService
	cart       *services.CartService
	inventory  *services.InventoryService
	auth       *services.AuthService
	cfg        *config.Config
}

// NewServer creates the API server over the given services
func NewServer(db *gorm.DB, checkout *services.CheckoutService, reconciler *services.ReconcilerService, cart *services.CartService, inventory *services.InventoryService, auth *services.AuthService, cfg *config.Config) *Server {
	return &Server{
		db:         db,
		checkout:   checkout,
		reconciler: reconciler,
		cart:       cart,
		inventory:  inventory,
		auth:       auth,
		cfg:        cfg,
	}
}

// SetupRoutes sets up all routes
func (s *Server) SetupRoutes(r *gin.Engine) {
	// Gateway webhook (authenticated with basic auth, not JWT)
	r.POST("/payments/yookassa/webhook", s.HandleYooKassaWebhook)

	// API route group
	api := r.Group("/api")
	{
		// Buyer registration
		api.POST("/users", s.UpsertUser)

		// Catalog routes
		items := api.Group("/items")
		{
			items.GET("", s.ListItems)
			items.GET("/:id", s.GetItem)
		}

		// Cart routes
		cart := api.Group("/cart")
		{
			cart.GET("", s.GetCart)
			cart.POST("/items", s.AddCartItem)
			cart.DELETE("/items/:item_id", s.RemoveCartItem)
			cart.DELETE("", s.ClearCart)
			cart.POST("/checkout", s.CheckoutCart)
		}

		// Order and donation routes
		api.POST("/orders", s.CreateOrder)
		api.POST("/donations", s.CreateDonation)
		api.GET("/donations/options", s.DonationOptions)

		// Delivery-particulars collection routes
		checkout := api.Group("/checkout")
		{
			checkout.POST("/delivery", s.SubmitDelivery)
			checkout.DELETE("/delivery", s.CancelDelivery)
		}

		// Admin console routes
		admin := api.Group("/admin")
		admin.POST("/login", s.AdminLogin)
		authed := admin.Group("")
		authed.Use(middleware.AdminAuthMiddleware(s.auth))
		{
			authed.GET("/orders", s.ListOrders)
			authed.GET("/orders/:id", s.GetOrder)
			authed.POST("/invoices", s.CreateInvoice)
			authed.POST("/items/:id/codes", s.AddItemCodes)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "shopbot-api",
		})
	})
}
