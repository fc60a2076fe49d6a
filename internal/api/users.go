package api

import (
	"net/http"

	"shopbot-api/internal/models"
	"shopbot-api/internal/response"
	"shopbot-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertUserRequest registers or refreshes a buyer profile
type UpsertUserRequest struct {
	TgID         int64  `json:"tg_id" binding:"required"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
	IsBot        bool   `json:"is_bot"`
}

// UpsertUser creates the buyer on first contact and refreshes the profile
// fields on every later one
func (s *Server) UpsertUser(c *gin.Context) {
	var req UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	user := models.User{
		TgID:         req.TgID,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		LanguageCode: req.LanguageCode,
		IsBot:        req.IsBot,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tg_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name", "language_code", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		logging.Errorf("Failed to upsert user: tg_id=%d, error=%v", req.TgID, err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to save user")
		return
	}

	// The upsert does not report the row id on conflict, reload it
	var saved models.User
	if err := s.db.Where("tg_id = ?", req.TgID).First(&saved).Error; err != nil && err != gorm.ErrRecordNotFound {
		logging.Errorf("Failed to reload user: tg_id=%d, error=%v", req.TgID, err)
	}
	response.SuccessJSON(c, saved)
}
