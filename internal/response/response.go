package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every /api handler answers with
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success builds a success envelope around data
func Success(data interface{}) Response {
	return Response{
		Success: true,
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	}
}

// Error builds an error envelope
func Error(statusCode int, message string) Response {
	return Response{
		Success: false,
		Code:    statusCode,
		Message: message,
	}
}

// JSON writes an envelope with the given HTTP status
func JSON(c *gin.Context, statusCode int, response Response) {
	c.JSON(statusCode, response)
}

// SuccessJSON writes a 200 success envelope
func SuccessJSON(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, Success(data))
}

// ErrorJSON writes an error envelope with matching HTTP status
func ErrorJSON(c *gin.Context, statusCode int, message string) {
	JSON(c, statusCode, Error(statusCode, message))
}
