package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"shopbot-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notification(event, status, gatewayID, amount string, metadata map[string]string) *WebhookNotification {
	n := &WebhookNotification{Type: "notification", Event: event}
	n.Object.ID = gatewayID
	n.Object.Status = status
	n.Object.Paid = status == "succeeded"
	n.Object.Amount.Value = amount
	n.Object.Amount.Currency = "RUB"
	n.Object.Metadata = metadata
	return n
}

func succeededFor(orderID uint, tag string) *WebhookNotification {
	return notification("payment.succeeded", "succeeded", "gw-abc", "100.00", map[string]string{
		tag: fmt.Sprint(orderID),
	})
}

func newReconcilerHarness(t *testing.T) (*ReconcilerService, *fakeTransport) {
	t.Helper()
	db := setupTestDB(t)
	transport := &fakeTransport{}
	inventory := NewInventoryService(db)
	delivery := NewDeliveryDispatcher(db, transport)
	notifier := NewAdminNotifier(db, transport, 999)
	return NewReconcilerService(db, inventory, delivery, notifier), transport
}

func TestClassifyNotificationPriority(t *testing.T) {
	cases := []struct {
		name string
		meta map[string]string
		kind PaymentEventKind
	}{
		{"donation", map[string]string{"donation": "true", "buyer_tg_id": "42"}, EventDonation},
		{"admin invoice", map[string]string{"admin_invoice": "true"}, EventAdminInvoice},
		{"offline order", map[string]string{"offline_order_id": "7"}, EventOfflineOrder},
		{"cart order", map[string]string{"cart_order_id": "7", "item_ids": "1,2"}, EventCartOrder},
		{"item order", map[string]string{"paymentId": "7"}, EventItemOrder},
		{"empty metadata", map[string]string{}, EventUnrecognized},
		// donation outranks any order tag
		{"donation beats order", map[string]string{"donation": "true", "paymentId": "7"}, EventDonation},
		// offline outranks cart and item tags
		{"offline beats cart", map[string]string{"offline_order_id": "7", "cart_order_id": "8", "paymentId": "9"}, EventOfflineOrder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event, err := ClassifyNotification(notification("payment.succeeded", "succeeded", "gw-1", "10.00", tc.meta))
			require.NoError(t, err)
			assert.Equal(t, tc.kind, event.Kind)
			assert.Equal(t, int64(1000), event.AmountMinor)
		})
	}
}

func TestClassifyNotificationBadAmount(t *testing.T) {
	_, err := ClassifyNotification(notification("payment.succeeded", "succeeded", "gw-1", "ten", nil))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestClassifyNotificationBadOrderID(t *testing.T) {
	_, err := ClassifyNotification(notification("payment.succeeded", "succeeded", "gw-1", "10.00", map[string]string{"paymentId": "abc"}))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestHandleNotificationIgnoresOtherEvents(t *testing.T) {
	rec, transport := newReconcilerHarness(t)

	for _, n := range []*WebhookNotification{
		notification("payment.canceled", "canceled", "gw-1", "10.00", map[string]string{"paymentId": "1"}),
		notification("payment.succeeded", "pending", "gw-1", "10.00", map[string]string{"paymentId": "1"}),
		notification("refund.succeeded", "succeeded", "gw-1", "10.00", map[string]string{"paymentId": "1"}),
	} {
		require.NoError(t, rec.HandleNotification(context.Background(), n))
	}
	assert.Empty(t, transport.sent())
}

func TestHandleNotificationUnrecognizedMetadata(t *testing.T) {
	rec, transport := newReconcilerHarness(t)

	n := notification("payment.succeeded", "succeeded", "gw-1", "10.00", map[string]string{})
	err := rec.HandleNotification(context.Background(), n)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, transport.sent())
}

func TestHandleNotificationSettlesCodeOrder(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{}
	inventory := NewInventoryService(db)
	rec := NewReconcilerService(db, inventory, NewDeliveryDispatcher(db, transport), NewAdminNotifier(db, transport, 999))

	user := seedUser(t, db, 42)
	item := seedItem(t, db, &models.Item{
		Title:        "License key",
		PriceMinor:   10000,
		ItemType:     models.ItemTypeDigital,
		DeliveryType: models.DeliveryTypeCodes,
	})
	require.NoError(t, inventory.AddCodes(item.ID, []string{"AAA-111"}))

	order := &models.Order{
		UserID:      &user.ID,
		ItemID:      &item.ID,
		AmountMinor: 10000,
		Currency:    "RUB",
		Status:      models.OrderStatusPending,
		BuyerTgID:   "42",
	}
	require.NoError(t, db.Create(order).Error)

	require.NoError(t, rec.HandleNotification(context.Background(), succeededFor(order.ID, "paymentId")))

	var settled models.Order
	require.NoError(t, db.First(&settled, order.ID).Error)
	assert.Equal(t, models.OrderStatusPaid, settled.Status)
	assert.Equal(t, "gw-abc", settled.GatewayID)

	var purchases []models.Purchase
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&purchases).Error)
	require.Len(t, purchases, 1)
	assert.Equal(t, "AAA-111", purchases[0].DeliveryInfo)

	var code models.ItemCode
	require.NoError(t, db.Where("item_id = ?", item.ID).First(&code).Error)
	assert.True(t, code.IsSold)
	require.NotNil(t, code.SoldOrderID)
	assert.Equal(t, order.ID, *code.SoldOrderID)

	// buyer got the code, admin got the sale notice
	msgs := transport.sent()
	require.NotEmpty(t, msgs)
	var buyerGotCode, adminNotified bool
	for _, m := range msgs {
		if m.ChatID == 42 && strings.Contains(m.Text, "AAA-111") {
			buyerGotCode = true
		}
		if m.ChatID == 999 && strings.Contains(m.Text, "Оплата получена") {
			adminNotified = true
		}
	}
	assert.True(t, buyerGotCode)
	assert.True(t, adminNotified)
}

func TestHandleNotificationIdempotent(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{}
	inventory := NewInventoryService(db)
	rec := NewReconcilerService(db, inventory, NewDeliveryDispatcher(db, transport), NewAdminNotifier(db, transport, 999))

	user := seedUser(t, db, 42)
	item := seedItem(t, db, &models.Item{
		Title:        "License key",
		PriceMinor:   10000,
		ItemType:     models.ItemTypeDigital,
		DeliveryType: models.DeliveryTypeCodes,
	})
	require.NoError(t, inventory.AddCodes(item.ID, []string{"AAA-111", "BBB-222"}))

	order := &models.Order{
		UserID:      &user.ID,
		ItemID:      &item.ID,
		AmountMinor: 10000,
		Status:      models.OrderStatusPending,
		BuyerTgID:   "42",
	}
	require.NoError(t, db.Create(order).Error)

	// same notification delivered three times
	for i := 0; i < 3; i++ {
		require.NoError(t, rec.HandleNotification(context.Background(), succeededFor(order.ID, "paymentId")))
	}

	var purchaseCount, soldCount int64
	require.NoError(t, db.Model(&models.Purchase{}).Where("order_id = ?", order.ID).Count(&purchaseCount).Error)
	require.NoError(t, db.Model(&models.ItemCode{}).Where("is_sold = ?", true).Count(&soldCount).Error)
	assert.Equal(t, int64(1), purchaseCount)
	assert.Equal(t, int64(1), soldCount)
}

func TestHandleNotificationCartOrder(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{}
	inventory := NewInventoryService(db)
	rec := NewReconcilerService(db, inventory, NewDeliveryDispatcher(db, transport), NewAdminNotifier(db, transport, 999))

	user := seedUser(t, db, 42)
	service := seedItem(t, db, &models.Item{
		Title:               "Consultation",
		PriceMinor:          50000,
		ItemType:            models.ItemTypeService,
		ServiceAdminContact: "@admin",
	})
	coded := seedItem(t, db, &models.Item{
		Title:        "License key",
		PriceMinor:   10000,
		ItemType:     models.ItemTypeDigital,
		DeliveryType: models.DeliveryTypeCodes,
	})
	require.NoError(t, inventory.AddCodes(coded.ID, []string{"AAA-111"}))

	order := &models.Order{
		UserID:      &user.ID,
		AmountMinor: 60000,
		Status:      models.OrderStatusPending,
		BuyerTgID:   "42",
		CartItemIDs: fmt.Sprintf("%d,%d", service.ID, coded.ID),
	}
	require.NoError(t, db.Create(order).Error)

	require.NoError(t, rec.HandleNotification(context.Background(), succeededFor(order.ID, "cart_order_id")))

	var purchases []models.Purchase
	require.NoError(t, db.Where("order_id = ?", order.ID).Order("id").Find(&purchases).Error)
	require.Len(t, purchases, 2)
	assert.Empty(t, purchases[0].DeliveryInfo)
	assert.Equal(t, "AAA-111", purchases[1].DeliveryInfo)
}

func TestHandleNotificationOutOfStockFailsWholeOrder(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{}
	inventory := NewInventoryService(db)
	rec := NewReconcilerService(db, inventory, NewDeliveryDispatcher(db, transport), NewAdminNotifier(db, transport, 999))

	user := seedUser(t, db, 42)
	item := seedItem(t, db, &models.Item{
		Title:        "License key",
		PriceMinor:   10000,
		ItemType:     models.ItemTypeDigital,
		DeliveryType: models.DeliveryTypeCodes,
	})
	// no codes provisioned

	order := &models.Order{
		UserID:      &user.ID,
		ItemID:      &item.ID,
		AmountMinor: 10000,
		Status:      models.OrderStatusPending,
		BuyerTgID:   "42",
	}
	require.NoError(t, db.Create(order).Error)

	err := rec.HandleNotification(context.Background(), succeededFor(order.ID, "paymentId"))
	assert.ErrorIs(t, err, ErrOutOfStock)

	// the settling transaction rolled back whole: order stays pending, no purchases
	var after models.Order
	require.NoError(t, db.First(&after, order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, after.Status)

	var purchaseCount int64
	require.NoError(t, db.Model(&models.Purchase{}).Count(&purchaseCount).Error)
	assert.Zero(t, purchaseCount)
}

func TestHandleNotificationUnknownOrder(t *testing.T) {
	rec, _ := newReconcilerHarness(t)
	err := rec.HandleNotification(context.Background(), succeededFor(12345, "paymentId"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandleNotificationDonation(t *testing.T) {
	rec, transport := newReconcilerHarness(t)

	n := notification("payment.succeeded", "succeeded", "gw-1", "500.00", map[string]string{
		"donation":    "true",
		"buyer_tg_id": "42",
	})
	require.NoError(t, rec.HandleNotification(context.Background(), n))

	msgs := transport.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(999), msgs[0].ChatID)
	assert.Contains(t, msgs[0].Text, "Донат получен")
	assert.Contains(t, msgs[0].Text, "500.00")
}

func TestHandleNotificationAdminInvoice(t *testing.T) {
	rec, transport := newReconcilerHarness(t)

	n := notification("payment.succeeded", "succeeded", "gw-1", "1200.00", map[string]string{
		"admin_invoice": "true",
	})
	n.Object.Description = "Оплата по договорённости"
	require.NoError(t, rec.HandleNotification(context.Background(), n))

	msgs := transport.sent()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Админ-счёт оплачен")
	assert.Contains(t, msgs[0].Text, "1200.00")
	assert.Contains(t, msgs[0].Text, "Оплата по договорённости")
}

func TestHandleNotificationOfflineOrderNotice(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{}
	inventory := NewInventoryService(db)
	rec := NewReconcilerService(db, inventory, NewDeliveryDispatcher(db, transport), NewAdminNotifier(db, transport, 999))

	user := seedUser(t, db, 42)
	item := seedItem(t, db, &models.Item{
		Title:      "Hoodie",
		PriceMinor: 250000,
		ItemType:   models.ItemTypeOffline,
	})

	order := &models.Order{
		UserID:           &user.ID,
		ItemID:           &item.ID,
		AmountMinor:      250000,
		Status:           models.OrderStatusPending,
		BuyerTgID:        "42",
		DeliveryFullname: "Иван Иванов",
		DeliveryPhone:    "+79990001122",
		DeliveryAddress:  "Москва, Тверская 1",
	}
	require.NoError(t, db.Create(order).Error)

	require.NoError(t, rec.HandleNotification(context.Background(), succeededFor(order.ID, "offline_order_id")))

	// purchase carries the shipping particulars
	var purchase models.Purchase
	require.NoError(t, db.Where("order_id = ?", order.ID).First(&purchase).Error)
	assert.Equal(t, "Иван Иванов", purchase.DeliveryFullname)
	assert.Equal(t, "+79990001122", purchase.DeliveryPhone)

	var adminNotice string
	for _, m := range transport.sent() {
		if m.ChatID == 999 {
			adminNotice = m.Text
		}
	}
	require.NotEmpty(t, adminNotice)
	assert.Contains(t, adminNotice, "Новый заказ")
	assert.Contains(t, adminNotice, "Иван Иванов")
	assert.Contains(t, adminNotice, "Тверская")
}

func TestWebhookNotificationDecoding(t *testing.T) {
	raw := `{
		"type": "notification",
		"event": "payment.succeeded",
		"object": {
			"id": "2d8e4a00-000f-5000-8000-1f64111bc63e",
			"status": "succeeded",
			"paid": true,
			"amount": {"value": "199.90", "currency": "RUB"},
			"metadata": {"paymentId": "17"}
		}
	}`
	var n WebhookNotification
	require.NoError(t, json.Unmarshal([]byte(raw), &n))
	assert.Equal(t, "payment.succeeded", n.Event)
	assert.Equal(t, "succeeded", n.Object.Status)
	assert.Equal(t, "199.90", n.Object.Amount.Value)
	assert.Equal(t, "17", n.Object.Metadata["paymentId"])
}
