package middleware

import (
	"net/http"
	"strings"
	"time"

	"shopbot-api/internal/response"
	"shopbot-api/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware guards the admin console routes with a bearer token
func AdminAuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization header"))
			c.Abort()
			return
		}

		subject, err := auth.VerifyToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			c.Abort()
			return
		}

		c.Set("admin_user", subject)
		c.Set("request_time", time.Now())
		c.Next()
	}
}
