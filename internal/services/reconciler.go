package services

import (
	"context"
	"fmt"
	"strconv"

	"shopbot-api/internal/models"
	"shopbot-api/pkg/logging"

	"gorm.io/gorm"
)

// WebhookNotification is the gateway callback payload
type WebhookNotification struct {
	Type   string `json:"type"`
	Event  string `json:"event"`
	Object struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		Paid        bool   `json:"paid"`
		Description string `json:"description"`
		Amount      struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"amount"`
		Metadata map[string]string `json:"metadata"`
	} `json:"object"`
}

// PaymentEventKind tells what a succeeded payment was for, decided from the
// correlation tags the checkout put into the charge metadata.
type PaymentEventKind int

const (
	EventUnrecognized PaymentEventKind = iota
	EventDonation
	EventAdminInvoice
	EventOfflineOrder
	EventCartOrder
	EventItemOrder
)

// PaymentEvent is the classified form of a webhook notification
type PaymentEvent struct {
	Kind        PaymentEventKind
	OrderID     uint
	BuyerTgID   int64
	GatewayID   string
	AmountMinor int64
	Currency    string
	Description string
}

// ClassifyNotification decides what kind of payment a notification reports.
// Tags are checked in a fixed priority order so a payload carrying several
// tags still resolves deterministically.
func ClassifyNotification(n *WebhookNotification) (*PaymentEvent, error) {
	amountMinor, err := DecimalToMinor(n.Object.Amount.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: bad amount %q", ErrValidation, n.Object.Amount.Value)
	}

	event := &PaymentEvent{
		GatewayID:   n.Object.ID,
		AmountMinor: amountMinor,
		Currency:    n.Object.Amount.Currency,
		Description: n.Object.Description,
	}
	meta := n.Object.Metadata

	if tg, ok := meta["buyer_tg_id"]; ok {
		event.BuyerTgID, _ = strconv.ParseInt(tg, 10, 64)
	}

	if meta["donation"] == "true" {
		event.Kind = EventDonation
		return event, nil
	}
	if meta["admin_invoice"] == "true" {
		event.Kind = EventAdminInvoice
		return event, nil
	}
	if raw, ok := meta["offline_order_id"]; ok {
		return withOrderID(event, EventOfflineOrder, raw)
	}
	if raw, ok := meta["cart_order_id"]; ok {
		return withOrderID(event, EventCartOrder, raw)
	}
	if raw, ok := meta["paymentId"]; ok {
		return withOrderID(event, EventItemOrder, raw)
	}

	event.Kind = EventUnrecognized
	return event, nil
}

func withOrderID(event *PaymentEvent, kind PaymentEventKind, raw string) (*PaymentEvent, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad order id %q", ErrValidation, raw)
	}
	event.Kind = kind
	event.OrderID = uint(id)
	return event, nil
}

// ReconcilerService applies gateway webhook notifications to orders. The
// paid flip is a conditional update, so replayed or concurrent notifications
// for the same payment settle exactly one order.
type ReconcilerService struct {
	db        *gorm.DB
	inventory *InventoryService
	delivery  *DeliveryDispatcher
	notifier  *AdminNotifier
}

// NewReconcilerService creates a reconciler service
func NewReconcilerService(db *gorm.DB, inventory *InventoryService, delivery *DeliveryDispatcher, notifier *AdminNotifier) *ReconcilerService {
	return &ReconcilerService{
		db:        db,
		inventory: inventory,
		delivery:  delivery,
		notifier:  notifier,
	}
}

// HandleNotification processes one webhook callback end to end. Fulfillment
// side effects (code delivery, admin notices) run only after the settling
// transaction committed; their failures are logged, never surfaced, since the
// payment itself already happened.
func (s *ReconcilerService) HandleNotification(ctx context.Context, n *WebhookNotification) error {
	if n.Event != "payment.succeeded" || n.Object.Status != "succeeded" {
		logging.Infof("Ignoring gateway event: event=%s, status=%s, id=%s", n.Event, n.Object.Status, n.Object.ID)
		return nil
	}

	event, err := ClassifyNotification(n)
	if err != nil {
		return err
	}

	switch event.Kind {
	case EventDonation:
		s.notifier.DonationReceived(ctx, event.BuyerTgID, event.AmountMinor)
		return nil
	case EventAdminInvoice:
		s.notifier.AdminInvoicePaid(ctx, event.AmountMinor, event.Description)
		return nil
	case EventUnrecognized:
		logging.Warnf("Unrecognized payment notification: gateway_id=%s, amount=%s", event.GatewayID, MinorToDecimal(event.AmountMinor))
		return fmt.Errorf("%w: notification carries no correlation tag", ErrValidation)
	}

	return s.settleOrder(ctx, event)
}

// settleOrder flips the order to paid and fulfills it in one transaction
func (s *ReconcilerService) settleOrder(ctx context.Context, event *PaymentEvent) error {
	var order models.Order
	var purchases []models.Purchase

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, event.OrderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: order %d", ErrNotFound, event.OrderID)
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		flip := tx.Model(&models.Order{}).
			Where("id = ? AND status IN ?", order.ID, []models.OrderStatus{models.OrderStatusCreated, models.OrderStatusPending}).
			Updates(map[string]interface{}{
				"status":     models.OrderStatusPaid,
				"gateway_id": event.GatewayID,
			})
		if flip.Error != nil {
			return fmt.Errorf("failed to settle order: %w", flip.Error)
		}
		if flip.RowsAffected == 0 {
			logging.Infof("Order already settled, skipping: order=%d, gateway_id=%s", order.ID, event.GatewayID)
			return nil
		}
		order.Status = models.OrderStatusPaid
		order.GatewayID = event.GatewayID

		itemIDs, err := orderItemIDs(&order)
		if err != nil {
			return err
		}

		for _, itemID := range itemIDs {
			var item models.Item
			if err := tx.First(&item, itemID).Error; err != nil {
				return fmt.Errorf("failed to load item %d: %w", itemID, err)
			}

			purchase := models.Purchase{
				OrderID:          order.ID,
				UserID:           order.UserID,
				ItemID:           &item.ID,
				DeliveryFullname: order.DeliveryFullname,
				DeliveryPhone:    order.DeliveryPhone,
				DeliveryAddress:  order.DeliveryAddress,
				DeliveryComment:  order.DeliveryComment,
			}
			if item.NeedsCode() {
				code, err := s.inventory.AllocateCode(tx, item.ID, order.ID)
				if err != nil {
					return err
				}
				purchase.DeliveryInfo = code.Code
			}
			if err := tx.Create(&purchase).Error; err != nil {
				return fmt.Errorf("failed to create purchase: %w", err)
			}
			purchases = append(purchases, purchase)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(purchases) == 0 {
		return nil
	}

	buyerTgID, _ := strconv.ParseInt(order.BuyerTgID, 10, 64)
	s.delivery.DeliverPurchases(ctx, buyerTgID, purchases)

	if event.Kind == EventOfflineOrder {
		s.notifier.OfflineOrderPaid(ctx, &order)
	} else {
		s.notifier.SaleCompleted(ctx, &order, purchases)
	}
	return nil
}

// orderItemIDs resolves the item set an order covers
func orderItemIDs(order *models.Order) ([]uint, error) {
	if order.CartItemIDs != "" {
		return splitIDs(order.CartItemIDs)
	}
	if order.ItemID != nil {
		return []uint{*order.ItemID}, nil
	}
	return nil, fmt.Errorf("%w: order %d has no items", ErrValidation, order.ID)
}
