package models

// ItemCode is one unit of finite digital stock (a license key or similar).
// A code flips is_sold false -> true exactly once; once sold it is never
// reallocated. SoldOrderID records which order consumed it.
type ItemCode struct {
	BaseModel
	ItemID      uint   `json:"item_id" gorm:"not null;index"`
	Code        string `json:"code" gorm:"size:512;not null"`
	IsSold      bool   `json:"is_sold" gorm:"default:false;not null;index"`
	SoldOrderID *uint  `json:"sold_order_id"`
}

func (ItemCode) TableName() string {
	return "item_codes"
}
