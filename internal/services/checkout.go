package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"shopbot-api/internal/models"
	"shopbot-api/pkg/logging"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckoutService builds orders from buy actions and obtains gateway charges.
// Physical-goods checkouts suspend into a CheckoutSession until the shipping
// particulars are collected.
type CheckoutService struct {
	db          *gorm.DB
	gateway     PaymentGateway
	sessions    SessionStore
	inventory   *InventoryService
	emailDomain string
}

// NewCheckoutService creates a checkout service
func NewCheckoutService(db *gorm.DB, gateway PaymentGateway, sessions SessionStore, inventory *InventoryService, emailDomain string) *CheckoutService {
	return &CheckoutService{
		db:          db,
		gateway:     gateway,
		sessions:    sessions,
		inventory:   inventory,
		emailDomain: emailDomain,
	}
}

// CheckoutResult is what a buy action yields: either a payment URL, or the
// state of the delivery-particulars collection the checkout suspended into.
type CheckoutResult struct {
	OrderID    uint         `json:"order_id,omitempty"`
	PaymentURL string       `json:"payment_url,omitempty"`
	NextState  SessionState `json:"next_state,omitempty"`
}

// CheckoutItem starts a single-item checkout. Physical items suspend into
// delivery-particulars collection; everything else gets a charge immediately.
func (s *CheckoutService) CheckoutItem(ctx context.Context, tgID int64, itemID uint, method models.PaymentMethod) (*CheckoutResult, error) {
	user, err := resolveUserByTgID(s.db, tgID)
	if err != nil {
		return nil, err
	}

	var item models.Item
	if err := s.db.First(&item, itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: item %d", ErrNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if !item.IsVisible {
		return nil, fmt.Errorf("%w: item %d is not available", ErrValidation, itemID)
	}
	if item.NeedsCode() {
		unsold, err := s.inventory.CountUnsold(item.ID)
		if err != nil {
			return nil, err
		}
		if unsold < 1 {
			return nil, fmt.Errorf("%w: item %q is sold out", ErrValidation, item.Title)
		}
	}

	if item.ItemType == models.ItemTypeOffline {
		return s.beginDeliveryCollection(ctx, &CheckoutSession{
			TgID:       tgID,
			ItemID:     &item.ID,
			TotalMinor: item.PriceMinor,
		})
	}

	order := &models.Order{
		UserID:        &user.ID,
		ItemID:        &item.ID,
		AmountMinor:   item.PriceMinor,
		Currency:      "RUB",
		PaymentMethod: method,
		Status:        models.OrderStatusCreated,
		BuyerTgID:     strconv.FormatInt(tgID, 10),
	}
	description := fmt.Sprintf("Оплата: %s", item.Title)
	charge, err := s.createOrderAndCharge(ctx, order, description, method.GatewayType(), func(orderID uint) map[string]string {
		return map[string]string{"paymentId": strconv.FormatUint(uint64(orderID), 10)}
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{OrderID: order.ID, PaymentURL: charge.ConfirmationURL}, nil
}

// CheckoutCart starts a checkout of the whole cart. Items are re-validated
// and codes stock is pre-checked so the buyer is rejected early; the check is
// not a reservation, allocation still happens atomically at payment time.
func (s *CheckoutService) CheckoutCart(ctx context.Context, tgID int64) (*CheckoutResult, error) {
	user, err := resolveUserByTgID(s.db, tgID)
	if err != nil {
		return nil, err
	}

	var cartItems []models.CartItem
	if err := s.db.Where("user_id = ?", user.ID).Find(&cartItems).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	itemIDs := make([]uint, 0, len(cartItems))
	for _, ci := range cartItems {
		itemIDs = append(itemIDs, ci.ItemID)
	}
	var items []models.Item
	if err := s.db.Where("id IN ? AND is_visible = ?", itemIDs, true).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no available items in cart", ErrValidation)
	}

	var total int64
	hasOffline := false
	availableIDs := make([]uint, 0, len(items))
	for _, item := range items {
		if item.NeedsCode() {
			unsold, err := s.inventory.CountUnsold(item.ID)
			if err != nil {
				return nil, err
			}
			if unsold < 1 {
				return nil, fmt.Errorf("%w: item %q is sold out", ErrValidation, item.Title)
			}
		}
		if item.ItemType == models.ItemTypeOffline {
			hasOffline = true
		}
		total += item.PriceMinor
		availableIDs = append(availableIDs, item.ID)
	}

	if hasOffline {
		return s.beginDeliveryCollection(ctx, &CheckoutSession{
			TgID:        tgID,
			CartItemIDs: availableIDs,
			TotalMinor:  total,
		})
	}

	order := &models.Order{
		UserID:        &user.ID,
		AmountMinor:   total,
		Currency:      "RUB",
		PaymentMethod: models.PaymentMethodCard,
		Status:        models.OrderStatusCreated,
		BuyerTgID:     strconv.FormatInt(tgID, 10),
		CartItemIDs:   joinIDs(availableIDs),
	}
	charge, err := s.createOrderAndCharge(ctx, order, "Оплата корзины", "", func(orderID uint) map[string]string {
		return map[string]string{
			"cart_order_id": strconv.FormatUint(uint64(orderID), 10),
			"item_ids":      joinIDs(availableIDs),
		}
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Where("user_id = ?", user.ID).Delete(&models.CartItem{}).Error; err != nil {
		logging.Errorf("Failed to clear cart after checkout: user=%d, error=%v", user.ID, err)
	}

	return &CheckoutResult{OrderID: order.ID, PaymentURL: charge.ConfirmationURL}, nil
}

// CreateDonation creates a gateway charge with no order behind it. The webhook
// reconciles donations purely from metadata.
func (s *CheckoutService) CreateDonation(ctx context.Context, tgID int64, amountMinor int64) (string, error) {
	if amountMinor <= 0 {
		return "", fmt.Errorf("%w: donation amount must be positive", ErrValidation)
	}

	charge, err := s.gateway.CreatePayment(ctx, ChargeRequest{
		AmountMinor: amountMinor,
		Currency:    "RUB",
		Description: fmt.Sprintf("Донат от %d", tgID),
		Metadata: map[string]string{
			"donation":    "true",
			"buyer_tg_id": strconv.FormatInt(tgID, 10),
		},
		CustomerEmail:  s.buyerEmail(tgID),
		IdempotenceKey: uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	return charge.ConfirmationURL, nil
}

// CreateAdminInvoice creates an ad-hoc charge issued by the admin. Like
// donations it leaves no order row; the paid webhook only notifies the admin.
func (s *CheckoutService) CreateAdminInvoice(ctx context.Context, amountMinor int64, description string) (string, error) {
	if amountMinor <= 0 {
		return "", fmt.Errorf("%w: invoice amount must be positive", ErrValidation)
	}
	if strings.TrimSpace(description) == "" {
		return "", fmt.Errorf("%w: invoice description is required", ErrValidation)
	}

	charge, err := s.gateway.CreatePayment(ctx, ChargeRequest{
		AmountMinor: amountMinor,
		Currency:    "RUB",
		Description: description,
		Metadata: map[string]string{
			"admin_invoice": "true",
		},
		IdempotenceKey: uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	return charge.ConfirmationURL, nil
}

// beginDeliveryCollection suspends the checkout into the shipping-particulars
// protocol, starting at the full-name question
func (s *CheckoutService) beginDeliveryCollection(ctx context.Context, session *CheckoutSession) (*CheckoutResult, error) {
	session.State = StateAwaitingFullname
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return &CheckoutResult{NextState: session.State}, nil
}

// SubmitDeliveryField feeds one buyer message into the suspended
// delivery-particulars collection and advances its state. Submitting the
// comment completes the checkout and yields the payment URL.
func (s *CheckoutService) SubmitDeliveryField(ctx context.Context, tgID int64, value string) (*CheckoutResult, error) {
	session, err := s.sessions.Load(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: no checkout in progress", ErrNotFound)
	}

	value = strings.TrimSpace(value)
	switch session.State {
	case StateAwaitingFullname:
		if len([]rune(value)) < 2 {
			return nil, fmt.Errorf("%w: full name is too short", ErrValidation)
		}
		session.Fullname = value
		session.State = StateAwaitingPhone
	case StateAwaitingPhone:
		if countDigits(value) < 10 {
			return nil, fmt.Errorf("%w: phone number needs at least 10 digits", ErrValidation)
		}
		session.Phone = value
		session.State = StateAwaitingAddress
	case StateAwaitingAddress:
		if len([]rune(value)) < 3 {
			return nil, fmt.Errorf("%w: address is too short", ErrValidation)
		}
		session.Address = value
		session.State = StateAwaitingComment
	case StateAwaitingComment:
		session.Comment = value
		return s.completePhysicalCheckout(ctx, session)
	default:
		return nil, fmt.Errorf("%w: unexpected checkout state %q", ErrValidation, session.State)
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return &CheckoutResult{NextState: session.State}, nil
}

// SkipDeliveryField leaves the current field empty and advances. Skipping the
// comment completes the checkout.
func (s *CheckoutService) SkipDeliveryField(ctx context.Context, tgID int64) (*CheckoutResult, error) {
	session, err := s.sessions.Load(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: no checkout in progress", ErrNotFound)
	}

	switch session.State {
	case StateAwaitingFullname:
		session.State = StateAwaitingPhone
	case StateAwaitingPhone:
		session.State = StateAwaitingAddress
	case StateAwaitingAddress:
		session.State = StateAwaitingComment
	case StateAwaitingComment:
		return s.completePhysicalCheckout(ctx, session)
	default:
		return nil, fmt.Errorf("%w: unexpected checkout state %q", ErrValidation, session.State)
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return &CheckoutResult{NextState: session.State}, nil
}

// CancelCheckout drops the suspended collection, leaving no trace
func (s *CheckoutService) CancelCheckout(ctx context.Context, tgID int64) error {
	return s.sessions.Clear(ctx, tgID)
}

// completePhysicalCheckout turns a finished session into an order + charge
func (s *CheckoutService) completePhysicalCheckout(ctx context.Context, session *CheckoutSession) (*CheckoutResult, error) {
	user, err := resolveUserByTgID(s.db, session.TgID)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:           &user.ID,
		ItemID:           session.ItemID,
		AmountMinor:      session.TotalMinor,
		Currency:         "RUB",
		PaymentMethod:    models.PaymentMethodCard,
		Status:           models.OrderStatusCreated,
		BuyerTgID:        strconv.FormatInt(session.TgID, 10),
		DeliveryFullname: session.Fullname,
		DeliveryPhone:    session.Phone,
		DeliveryAddress:  session.Address,
		DeliveryComment:  session.Comment,
	}
	if len(session.CartItemIDs) > 0 {
		order.CartItemIDs = joinIDs(session.CartItemIDs)
	}

	charge, err := s.createOrderAndCharge(ctx, order, "Оплата заказа с доставкой", "", func(orderID uint) map[string]string {
		return map[string]string{"offline_order_id": strconv.FormatUint(uint64(orderID), 10)}
	})
	if err != nil {
		return nil, err
	}

	if len(session.CartItemIDs) > 0 {
		if err := s.db.Where("user_id = ?", user.ID).Delete(&models.CartItem{}).Error; err != nil {
			logging.Errorf("Failed to clear cart after checkout: user=%d, error=%v", user.ID, err)
		}
	}

	if err := s.sessions.Clear(ctx, session.TgID); err != nil {
		logging.Errorf("Failed to clear checkout session: tg_id=%d, error=%v", session.TgID, err)
	}

	return &CheckoutResult{OrderID: order.ID, PaymentURL: charge.ConfirmationURL}, nil
}

// createOrderAndCharge persists the order and requests the gateway charge
// inside one transaction. A failed charge request rolls the order back
// entirely: no partially-created financial record may stay visible to
// reconciliation.
func (s *CheckoutService) createOrderAndCharge(ctx context.Context, order *models.Order, description, methodType string, metadata func(orderID uint) map[string]string) (*Charge, error) {
	var charge *Charge

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		tgID, _ := strconv.ParseInt(order.BuyerTgID, 10, 64)
		var err error
		charge, err = s.gateway.CreatePayment(ctx, ChargeRequest{
			AmountMinor:    order.AmountMinor,
			Currency:       order.Currency,
			Description:    fmt.Sprintf("%s | Заказ %d", description, order.ID),
			Metadata:       metadata(order.ID),
			MethodType:     methodType,
			CustomerEmail:  s.buyerEmail(tgID),
			IdempotenceKey: uuid.NewString(),
		})
		if err != nil {
			return err
		}

		order.GatewayID = charge.ID
		order.PaymentURL = charge.ConfirmationURL
		order.Status = models.OrderStatusPending
		if err := tx.Save(order).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return charge, nil
}

func (s *CheckoutService) buyerEmail(tgID int64) string {
	if tgID == 0 {
		return ""
	}
	return fmt.Sprintf("%d@%s", tgID, s.emailDomain)
}

func joinIDs(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ",")
}

func splitIDs(csv string) ([]uint, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(csv, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item id list %q: %w", csv, err)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
