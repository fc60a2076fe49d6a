package services

import (
	"fmt"
	"strings"

	"shopbot-api/internal/models"

	"gorm.io/gorm"
)

// InventoryService manages the finite stock of pre-provisioned item codes
type InventoryService struct {
	db *gorm.DB
}

// NewInventoryService creates an inventory service
func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

// AllocateCode claims one unsold code of the item for the order. It must be
// called inside the same transaction that flips the order to paid, so the
// allocation and the status change commit as one unit.
//
// Concurrency discipline: the claim is a conditional update
// (WHERE is_sold = false) retried over candidates. A competing allocator that
// already claimed the candidate makes the update affect zero rows, and the
// loop moves on to the next unsold code instead of blocking. A code therefore
// flips false -> true at most once.
func (s *InventoryService) AllocateCode(tx *gorm.DB, itemID, orderID uint) (*models.ItemCode, error) {
	var tried []uint

	for {
		var candidate models.ItemCode
		q := tx.Where("item_id = ? AND is_sold = ?", itemID, false)
		if len(tried) > 0 {
			q = q.Where("id NOT IN ?", tried)
		}
		if err := q.Order("id").First(&candidate).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: item %d has no unsold codes", ErrOutOfStock, itemID)
			}
			return nil, fmt.Errorf("failed to select code candidate: %w", err)
		}

		res := tx.Model(&models.ItemCode{}).
			Where("id = ? AND is_sold = ?", candidate.ID, false).
			Updates(map[string]interface{}{"is_sold": true, "sold_order_id": orderID})
		if res.Error != nil {
			return nil, fmt.Errorf("failed to claim code: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			candidate.IsSold = true
			candidate.SoldOrderID = &orderID
			return &candidate, nil
		}

		// lost the race for this candidate, skip it
		tried = append(tried, candidate.ID)
	}
}

// CountUnsold returns how many codes remain for the item
func (s *InventoryService) CountUnsold(itemID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.ItemCode{}).
		Where("item_id = ? AND is_sold = ?", itemID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unsold codes: %w", err)
	}
	return count, nil
}

// AddCodes bulk-inserts new stock for the item
func (s *InventoryService) AddCodes(itemID uint, codes []string) error {
	if len(codes) == 0 {
		return fmt.Errorf("%w: empty code list", ErrValidation)
	}
	var item models.Item
	if err := s.db.First(&item, itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: item %d", ErrNotFound, itemID)
		}
		return fmt.Errorf("failed to load item: %w", err)
	}
	rows := make([]models.ItemCode, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			return fmt.Errorf("%w: empty code", ErrValidation)
		}
		rows = append(rows, models.ItemCode{ItemID: itemID, Code: code})
	}
	if err := s.db.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert codes: %w", err)
	}
	return nil
}
