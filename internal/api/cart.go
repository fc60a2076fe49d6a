package api

import (
	"errors"
	"net/http"
	"strconv"

	"shopbot-api/internal/response"
	"shopbot-api/internal/services"
	"shopbot-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// CartItemRequest adds an item to a buyer's cart
type CartItemRequest struct {
	TgID   int64 `json:"tg_id" binding:"required"`
	ItemID uint  `json:"item_id" binding:"required"`
}

// AddCartItem adds an item to the cart
func (s *Server) AddCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if err := s.cart.Add(req.TgID, req.ItemID); err != nil {
		s.cartError(c, err)
		return
	}
	response.SuccessJSON(c, nil)
}

// RemoveCartItem removes one item from the cart
func (s *Server) RemoveCartItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid item id")
		return
	}
	tgID, err := queryTgID(c)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid tg_id")
		return
	}

	if err := s.cart.Remove(tgID, uint(itemID)); err != nil {
		s.cartError(c, err)
		return
	}
	response.SuccessJSON(c, nil)
}

// ClearCart empties the cart
func (s *Server) ClearCart(c *gin.Context) {
	tgID, err := queryTgID(c)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid tg_id")
		return
	}

	if err := s.cart.Clear(tgID); err != nil {
		s.cartError(c, err)
		return
	}
	response.SuccessJSON(c, nil)
}

// GetCart returns the cart contents and its total
func (s *Server) GetCart(c *gin.Context) {
	tgID, err := queryTgID(c)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid tg_id")
		return
	}

	items, total, err := s.cart.List(tgID)
	if err != nil {
		s.cartError(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{
		"items":       items,
		"total_minor": total,
	})
}

// CheckoutCartRequest starts a whole-cart checkout
type CheckoutCartRequest struct {
	TgID int64 `json:"tg_id" binding:"required"`
}

// CheckoutCart starts a whole-cart checkout
func (s *Server) CheckoutCart(c *gin.Context) {
	var req CheckoutCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	result, err := s.checkout.CheckoutCart(c.Request.Context(), req.TgID)
	if err != nil {
		s.checkoutError(c, err)
		return
	}
	response.SuccessJSON(c, result)
}

func (s *Server) cartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.ErrorJSON(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrValidation):
		response.ErrorJSON(c, http.StatusBadRequest, err.Error())
	default:
		logging.Errorf("Cart operation failed: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Internal error")
	}
}

func queryTgID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Query("tg_id"), 10, 64)
}
