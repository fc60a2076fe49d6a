package models

// User is a Telegram user known to the storefront. Orders and purchases keep
// only weak references to it: financial records survive user deletion.
type User struct {
	BaseModel
	TgID         int64  `json:"tg_id" gorm:"uniqueIndex;not null"`
	Username     string `json:"username" gorm:"size:64"`
	FirstName    string `json:"first_name" gorm:"size:64"`
	LastName     string `json:"last_name" gorm:"size:64"`
	LanguageCode string `json:"language_code" gorm:"size:16"`
	IsBot        bool   `json:"is_bot"`
}

func (User) TableName() string {
	return "users"
}
