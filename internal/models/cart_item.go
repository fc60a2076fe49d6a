package models

// CartItem is an ephemeral pre-checkout association, unique per user+item.
// Deleted on remove, on explicit clear, and once checkout obtains a charge.
type CartItem struct {
	BaseModel
	UserID uint `json:"user_id" gorm:"not null;uniqueIndex:idx_cart_user_item"`
	ItemID uint `json:"item_id" gorm:"not null;uniqueIndex:idx_cart_user_item"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
