package api

import (
	"errors"
	"net/http"

	"shopbot-api/internal/models"
	"shopbot-api/internal/response"
	"shopbot-api/internal/services"
	"shopbot-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest starts a checkout for a buyer. With item_id set it buys
// that item; with only amount_minor set it creates a donation charge.
type CreateOrderRequest struct {
	TgID          int64 `json:"tg_id" binding:"required"`
	ItemID        uint  `json:"item_id"`
	AmountMinor   int64 `json:"amount_minor"`
	PaymentMethod int   `json:"payment_method"`
}

// CreateOrder starts a single-item checkout and returns the payment URL, or
// the first delivery-collection state for physical goods
func (s *Server) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if req.ItemID == 0 {
		if req.AmountMinor <= 0 {
			response.ErrorJSON(c, http.StatusBadRequest, "Either item_id or amount_minor is required")
			return
		}
		url, err := s.checkout.CreateDonation(c.Request.Context(), req.TgID, req.AmountMinor)
		if err != nil {
			s.checkoutError(c, err)
			return
		}
		response.SuccessJSON(c, gin.H{"payment_url": url})
		return
	}

	method := models.PaymentMethod(req.PaymentMethod)
	if method == 0 {
		method = models.PaymentMethodCard
	}
	if method.GatewayType() == "" {
		response.ErrorJSON(c, http.StatusBadRequest, "Unknown payment method")
		return
	}

	result, err := s.checkout.CheckoutItem(c.Request.Context(), req.TgID, req.ItemID, method)
	if err != nil {
		s.checkoutError(c, err)
		return
	}
	response.SuccessJSON(c, result)
}

// CreateDonationRequest creates a donation charge
type CreateDonationRequest struct {
	TgID        int64 `json:"tg_id" binding:"required"`
	AmountMinor int64 `json:"amount_minor" binding:"required"`
}

// CreateDonation creates a donation charge and returns its payment URL
func (s *Server) CreateDonation(c *gin.Context) {
	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	url, err := s.checkout.CreateDonation(c.Request.Context(), req.TgID, req.AmountMinor)
	if err != nil {
		s.checkoutError(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"payment_url": url})
}

// DonationOptions returns the preset donation amounts
func (s *Server) DonationOptions(c *gin.Context) {
	response.SuccessJSON(c, gin.H{"amounts_minor": s.cfg.DonateAmountsMinor})
}

// checkoutError maps service errors onto HTTP statuses
func (s *Server) checkoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.ErrorJSON(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrValidation):
		response.ErrorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrGateway):
		logging.Errorf("Gateway call failed: %v", err)
		response.ErrorJSON(c, http.StatusBadGateway, "Payment gateway unavailable")
	default:
		logging.Errorf("Checkout failed: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Internal error")
	}
}
