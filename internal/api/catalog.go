package api

import (
	"net/http"
	"strconv"

	"shopbot-api/internal/models"
	"shopbot-api/internal/response"
	"shopbot-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ItemView is the catalog representation of an item. Stock is reported only
// for code-delivered items, everything else is always in stock.
type ItemView struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceMinor  int64  `json:"price_minor"`
	ItemType    string `json:"item_type"`
	InStock     bool   `json:"in_stock"`
}

// ListItems returns the visible catalog
func (s *Server) ListItems(c *gin.Context) {
	var items []models.Item
	if err := s.db.Where("is_visible = ?", true).Order("id").Find(&items).Error; err != nil {
		logging.Errorf("Failed to list items: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to load catalog")
		return
	}

	views := make([]ItemView, 0, len(items))
	for i := range items {
		view, err := s.itemView(&items[i])
		if err != nil {
			logging.Errorf("Failed to build item view: item=%d, error=%v", items[i].ID, err)
			continue
		}
		views = append(views, *view)
	}
	response.SuccessJSON(c, views)
}

// GetItem returns one visible catalog item
func (s *Server) GetItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid item id")
		return
	}

	var item models.Item
	if err := s.db.Where("id = ? AND is_visible = ?", id, true).First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			response.ErrorJSON(c, http.StatusNotFound, "Item not found")
			return
		}
		logging.Errorf("Failed to load item: item=%d, error=%v", id, err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to load item")
		return
	}

	view, err := s.itemView(&item)
	if err != nil {
		logging.Errorf("Failed to build item view: item=%d, error=%v", item.ID, err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to load item")
		return
	}
	response.SuccessJSON(c, view)
}

func (s *Server) itemView(item *models.Item) (*ItemView, error) {
	inStock := true
	if item.NeedsCode() {
		unsold, err := s.inventory.CountUnsold(item.ID)
		if err != nil {
			return nil, err
		}
		inStock = unsold > 0
	}
	return &ItemView{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		PriceMinor:  item.PriceMinor,
		ItemType:    string(item.ItemType),
		InStock:     inStock,
	}, nil
}
