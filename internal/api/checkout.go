package api

import (
	"net/http"

	"shopbot-api/internal/response"

	"github.com/gin-gonic/gin"
)

// SubmitDeliveryRequest feeds one buyer answer into the delivery-particulars
// collection. Skip advances past the current field without a value.
type SubmitDeliveryRequest struct {
	TgID  int64  `json:"tg_id" binding:"required"`
	Value string `json:"value"`
	Skip  bool   `json:"skip"`
}

// SubmitDelivery advances the delivery-particulars collection one step.
// The final step completes the checkout and returns the payment URL.
func (s *Server) SubmitDelivery(c *gin.Context) {
	var req SubmitDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if req.Skip {
		res, skipErr := s.checkout.SkipDeliveryField(c.Request.Context(), req.TgID)
		if skipErr != nil {
			s.checkoutError(c, skipErr)
			return
		}
		response.SuccessJSON(c, res)
		return
	}

	res, err := s.checkout.SubmitDeliveryField(c.Request.Context(), req.TgID, req.Value)
	if err != nil {
		s.checkoutError(c, err)
		return
	}
	response.SuccessJSON(c, res)
}

// CancelDelivery abandons the in-progress collection
func (s *Server) CancelDelivery(c *gin.Context) {
	tgID, err := queryTgID(c)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid tg_id")
		return
	}

	if err := s.checkout.CancelCheckout(c.Request.Context(), tgID); err != nil {
		s.checkoutError(c, err)
		return
	}
	response.SuccessJSON(c, nil)
}
