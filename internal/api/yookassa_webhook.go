package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"shopbot-api/internal/services"
	"shopbot-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// HandleYooKassaWebhook receives payment notifications from the gateway.
// Anything except a well-formed, authenticated callback gets a 4xx so the
// gateway stops retrying; processing errors get a 5xx so it retries later.
func (s *Server) HandleYooKassaWebhook(c *gin.Context) {
	if !services.VerifyWebhookBasic(c.GetHeader("Authorization"), s.cfg.YKWebhookUser, s.cfg.YKWebhookPassword) {
		logging.Warnf("Webhook auth failed: remote=%s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Unauthorized",
		})
		return
	}

	// The gateway publishes its source ranges; a mismatch is logged but does
	// not reject, proxies and range updates make the list advisory only.
	if !services.IsTrustedGatewayIP(c.ClientIP()) {
		logging.Warnf("Webhook from outside gateway ranges: remote=%s", c.ClientIP())
	}

	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		logging.Errorf("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Empty or unreadable body",
		})
		return
	}

	var notification services.WebhookNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		logging.Errorf("Failed to parse webhook body: %v, body length: %d", err, len(body))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid notification format",
		})
		return
	}

	logging.Infof("Gateway webhook: event=%s, payment=%s, status=%s",
		notification.Event, notification.Object.ID, notification.Object.Status)

	if err := s.reconciler.HandleNotification(c.Request.Context(), &notification); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			logging.Errorf("Webhook references unknown order: payment=%s, error=%v", notification.Object.ID, err)
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Order not found",
			})
		case errors.Is(err, services.ErrValidation):
			logging.Errorf("Webhook payload rejected: payment=%s, error=%v", notification.Object.ID, err)
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Invalid notification",
			})
		default:
			logging.Errorf("Webhook processing failed: payment=%s, error=%v", notification.Object.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Processing failed",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
