package models

// PaymentMethod identifies the gateway payment method selected at checkout.
// The numeric codes are the gateway's own method identifiers.
type PaymentMethod int

const (
	PaymentMethodCard  PaymentMethod = 36 // bank card
	PaymentMethodSBPQR PaymentMethod = 44 // SBP QR
)

// GatewayType maps the payment method to the gateway's payment_method_data.type value.
// Returns an empty string for unknown codes, letting the gateway pick the method.
func (m PaymentMethod) GatewayType() string {
	switch m {
	case PaymentMethodCard:
		return "bank_card"
	case PaymentMethodSBPQR:
		return "sbp"
	default:
		return ""
	}
}

// OrderStatus is the order lifecycle state
type OrderStatus string

const (
	OrderStatusCreated  OrderStatus = "created"
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusFailed   OrderStatus = "failed"
	OrderStatusCanceled OrderStatus = "canceled"
)

// Terminal reports whether no further transition is permitted out of the status.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed || s == OrderStatusCanceled
}

// CanTransitionTo reports whether the status may move to next.
// Statuses only move forward: created -> pending -> paid, with failed/canceled
// reachable from created and pending.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case OrderStatusPending:
		return s == OrderStatusCreated
	case OrderStatusPaid:
		return s == OrderStatusCreated || s == OrderStatusPending
	case OrderStatusFailed, OrderStatusCanceled:
		return s == OrderStatusCreated || s == OrderStatusPending
	default:
		return false
	}
}

// Order is one checkout attempt's financial record.
// UserID and ItemID are weak references: an order outlives the deletion of the
// user or item it pointed at. BuyerTgID keeps the buyer addressable after
// user deletion.
type Order struct {
	BaseModel
	UserID        *uint         `json:"user_id" gorm:"index"`
	ItemID        *uint         `json:"item_id" gorm:"index"` // nil for cart and donation orders
	AmountMinor   int64         `json:"amount_minor" gorm:"not null"`
	Currency      string        `json:"currency" gorm:"size:8;default:'RUB'"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        OrderStatus   `json:"status" gorm:"size:20;not null;default:'created';index"`
	GatewayID     string        `json:"gateway_id" gorm:"size:64;index"` // gateway charge id
	PaymentURL    string        `json:"payment_url" gorm:"size:1024"`
	BuyerTgID     string        `json:"buyer_tg_id" gorm:"size:64;index"`

	// Multi-item orders keep the item set on the row so reconciliation does not
	// depend on anything beyond the order id echoed back in webhook metadata.
	CartItemIDs string `json:"cart_item_ids" gorm:"size:512"` // comma-separated item ids

	// Shipping particulars collected before checkout of physical goods; copied
	// onto each Purchase at the paid flip.
	DeliveryFullname string `json:"delivery_fullname" gorm:"size:256"`
	DeliveryPhone    string `json:"delivery_phone" gorm:"size:64"`
	DeliveryAddress  string `json:"delivery_address" gorm:"size:512"`
	DeliveryComment  string `json:"delivery_comment" gorm:"size:1024"`

	Purchases []Purchase `json:"purchases,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string {
	return "orders"
}
