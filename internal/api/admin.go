package api

import (
	"errors"
	"net/http"
	"strconv"

	"shopbot-api/internal/models"
	"shopbot-api/internal/response"
	"shopbot-api/internal/services"
	"shopbot-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminLoginRequest exchanges the admin credentials for a bearer token
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin issues the admin console token
func (s *Server) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		logging.Warnf("Admin login failed: user=%s, remote=%s", req.Username, c.ClientIP())
		response.ErrorJSON(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	response.SuccessJSON(c, gin.H{"token": token})
}

// ListOrders returns orders newest first, optionally filtered by status
func (s *Server) ListOrders(c *gin.Context) {
	query := s.db.Model(&models.Order{}).Order("id DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var orders []models.Order
	if err := query.Limit(limit).Find(&orders).Error; err != nil {
		logging.Errorf("Failed to list orders: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to load orders")
		return
	}
	response.SuccessJSON(c, orders)
}

// GetOrder returns one order with its purchases
func (s *Server) GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	var order models.Order
	if err := s.db.Preload("Purchases").First(&order, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			response.ErrorJSON(c, http.StatusNotFound, "Order not found")
			return
		}
		logging.Errorf("Failed to load order: order=%d, error=%v", id, err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to load order")
		return
	}
	response.SuccessJSON(c, order)
}

// CreateInvoiceRequest creates an ad-hoc payment link
type CreateInvoiceRequest struct {
	AmountMinor int64  `json:"amount_minor" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// CreateInvoice creates an ad-hoc charge and returns its payment URL
func (s *Server) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	url, err := s.checkout.CreateAdminInvoice(c.Request.Context(), req.AmountMinor, req.Description)
	if err != nil {
		s.checkoutError(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"payment_url": url})
}

// AddItemCodesRequest provisions inventory codes for an item
type AddItemCodesRequest struct {
	Codes []string `json:"codes" binding:"required"`
}

// AddItemCodes provisions inventory codes for a code-delivered item
func (s *Server) AddItemCodes(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid item id")
		return
	}

	var req AddItemCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if err := s.inventory.AddCodes(uint(itemID), req.Codes); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			response.ErrorJSON(c, http.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrValidation):
			response.ErrorJSON(c, http.StatusBadRequest, err.Error())
		default:
			logging.Errorf("Failed to add codes: item=%d, error=%v", itemID, err)
			response.ErrorJSON(c, http.StatusInternalServerError, "Failed to add codes")
		}
		return
	}

	unsold, err := s.inventory.CountUnsold(uint(itemID))
	if err != nil {
		response.SuccessJSON(c, nil)
		return
	}
	response.SuccessJSON(c, gin.H{"unsold": unsold})
}
