package models

// Purchase is one fulfilled line item under a paid order. Rows are created
// atomically with the order's paid flip and never mutated afterward; they are
// removed only by administrative order deletion cascading down.
type Purchase struct {
	BaseModel
	OrderID uint  `json:"order_id" gorm:"not null;index"`
	UserID  *uint `json:"user_id" gorm:"index"`
	ItemID  *uint `json:"item_id" gorm:"index"` // kept even if the item is later deleted

	DeliveryInfo string `json:"delivery_info" gorm:"size:1024"`

	// Physical goods shipping particulars, verbatim as collected at checkout
	DeliveryFullname string `json:"delivery_fullname" gorm:"size:256"`
	DeliveryPhone    string `json:"delivery_phone" gorm:"size:64"`
	DeliveryAddress  string `json:"delivery_address" gorm:"size:512"`
	DeliveryComment  string `json:"delivery_comment" gorm:"size:1024"`
}

func (Purchase) TableName() string {
	return "purchases"
}
