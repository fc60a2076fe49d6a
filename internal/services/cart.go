package services

import (
	"fmt"

	"shopbot-api/internal/models"

	"gorm.io/gorm"
)

// CartService manages the pre-checkout cart
type CartService struct {
	db *gorm.DB
}

// NewCartService creates a cart service
func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// Add puts an item into the user's cart. A digital item the user already
// purchased, an invisible item, or an item already in the cart is rejected.
func (s *CartService) Add(tgID int64, itemID uint) error {
	user, err := resolveUserByTgID(s.db, tgID)
	if err != nil {
		return err
	}

	var item models.Item
	if err := s.db.First(&item, itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: item %d", ErrNotFound, itemID)
		}
		return fmt.Errorf("failed to load item: %w", err)
	}
	if !item.IsVisible {
		return fmt.Errorf("%w: item %d is not available", ErrValidation, itemID)
	}

	if item.ItemType == models.ItemTypeDigital {
		var purchased int64
		if err := s.db.Model(&models.Purchase{}).
			Where("user_id = ? AND item_id = ?", user.ID, itemID).
			Count(&purchased).Error; err != nil {
			return fmt.Errorf("failed to check purchases: %w", err)
		}
		if purchased > 0 {
			return fmt.Errorf("%w: item %d already purchased", ErrValidation, itemID)
		}
	}

	var existing int64
	if err := s.db.Model(&models.CartItem{}).
		Where("user_id = ? AND item_id = ?", user.ID, itemID).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("failed to check cart: %w", err)
	}
	if existing > 0 {
		return fmt.Errorf("%w: item %d already in cart", ErrValidation, itemID)
	}

	if err := s.db.Create(&models.CartItem{UserID: user.ID, ItemID: itemID}).Error; err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}
	return nil
}

// Remove deletes one item from the user's cart
func (s *CartService) Remove(tgID int64, itemID uint) error {
	user, err := resolveUserByTgID(s.db, tgID)
	if err != nil {
		return err
	}
	res := s.db.Where("user_id = ? AND item_id = ?", user.ID, itemID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove from cart: %w", res.Error)
	}
	return nil
}

// Clear empties the user's cart
func (s *CartService) Clear(tgID int64) error {
	user, err := resolveUserByTgID(s.db, tgID)
	if err != nil {
		return err
	}
	if err := s.db.Where("user_id = ?", user.ID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// List returns the visible items in the user's cart and their total
func (s *CartService) List(tgID int64) ([]models.Item, int64, error) {
	user, err := resolveUserByTgID(s.db, tgID)
	if err != nil {
		return nil, 0, err
	}

	var cartItems []models.CartItem
	if err := s.db.Where("user_id = ?", user.ID).Find(&cartItems).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, 0, nil
	}

	itemIDs := make([]uint, 0, len(cartItems))
	for _, ci := range cartItems {
		itemIDs = append(itemIDs, ci.ItemID)
	}

	var items []models.Item
	if err := s.db.Where("id IN ? AND is_visible = ?", itemIDs, true).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to load cart items: %w", err)
	}

	var total int64
	for _, item := range items {
		total += item.PriceMinor
	}
	return items, total, nil
}

// resolveUserByTgID finds the user record behind an external Telegram id
func resolveUserByTgID(db *gorm.DB, tgID int64) (*models.User, error) {
	var user models.User
	if err := db.Where("tg_id = ?", tgID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, tgID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}
