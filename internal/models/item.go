package models

// ItemType is the catalog item kind
type ItemType string

const (
	ItemTypeService ItemType = "service" // fulfilled manually by the admin
	ItemTypeDigital ItemType = "digital" // delivered automatically
	ItemTypeOffline ItemType = "offline" // physical goods, shipped manually
)

// DeliveryType is the fulfillment mechanism of a digital item
type DeliveryType string

const (
	DeliveryTypeFile   DeliveryType = "file"   // send a stored asset
	DeliveryTypeCodes  DeliveryType = "codes"  // allocate one pre-provisioned code per sale
	DeliveryTypeGithub DeliveryType = "github" // grant read access to a repository
)

// Item is a catalog entry
type Item struct {
	BaseModel
	Title       string   `json:"title" gorm:"size:200;not null"`
	Description string   `json:"description" gorm:"type:text"`
	PriceMinor  int64    `json:"price_minor" gorm:"not null"` // integer minor currency units
	ItemType    ItemType `json:"item_type" gorm:"size:20;not null;index"`
	ImageFileID string   `json:"image_file_id" gorm:"size:256"`

	// service specific
	ServiceAdminContact string `json:"service_admin_contact" gorm:"size:128"`

	// digital specific
	DeliveryType        DeliveryType `json:"delivery_type" gorm:"size:20"`
	DigitalFilePath     string       `json:"digital_file_path" gorm:"size:512"`
	GithubRepoReadGrant string       `json:"github_repo_read_grant" gorm:"size:256"`

	IsVisible bool `json:"is_visible" gorm:"default:true;not null"`

	Codes []ItemCode `json:"-" gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

func (Item) TableName() string {
	return "items"
}

// NeedsCode reports whether a sale of the item must allocate one inventory code.
func (i *Item) NeedsCode() bool {
	return i.ItemType == ItemTypeDigital && i.DeliveryType == DeliveryTypeCodes
}
