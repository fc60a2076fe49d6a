package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"shopbot-api/internal/models"
	"shopbot-api/pkg/logging"

	"gorm.io/gorm"
)

// AdminNotifier sends sale and payment notices to the admin chat. Notices
// are best effort: a lost notice is logged and never fails the operation
// that triggered it.
type AdminNotifier struct {
	db          *gorm.DB
	transport   Transport
	adminChatID int64
}

// NewAdminNotifier creates an admin notifier
func NewAdminNotifier(db *gorm.DB, transport Transport, adminChatID int64) *AdminNotifier {
	return &AdminNotifier{db: db, transport: transport, adminChatID: adminChatID}
}

// SaleCompleted announces a settled order with its item titles
func (n *AdminNotifier) SaleCompleted(ctx context.Context, order *models.Order, purchases []models.Purchase) {
	var titles []string
	for _, p := range purchases {
		if p.ItemID == nil {
			continue
		}
		var item models.Item
		if err := n.db.First(&item, *p.ItemID).Error; err != nil {
			titles = append(titles, fmt.Sprintf("товар #%d", *p.ItemID))
			continue
		}
		titles = append(titles, item.Title)
	}

	text := fmt.Sprintf(
		"💳 Оплата получена\nТовар: %s\nСумма: %s ₽\nПокупатель: %s %s\nЗаказ: %d",
		strings.Join(titles, ", "), MinorToDecimal(order.AmountMinor), orDash(order.BuyerTgID), n.buyerUsername(order.BuyerTgID), order.ID,
	)
	n.send(ctx, strings.TrimSpace(text))
}

// DonationReceived announces a donation, naming the donor by username when
// the buyer is known to the user directory
func (n *AdminNotifier) DonationReceived(ctx context.Context, buyerTgID int64, amountMinor int64) {
	donor := "-"
	if buyerTgID != 0 {
		var user models.User
		if err := n.db.Where("tg_id = ?", buyerTgID).First(&user).Error; err == nil && user.Username != "" {
			donor = "@" + user.Username
		}
	}
	text := fmt.Sprintf("🎁 Донат получен\nСумма: %s ₽\nОт: %s", MinorToDecimal(amountMinor), donor)
	n.send(ctx, text)
}

// AdminInvoicePaid announces that an ad-hoc invoice was paid
func (n *AdminNotifier) AdminInvoicePaid(ctx context.Context, amountMinor int64, description string) {
	text := fmt.Sprintf("🧾 Админ-счёт оплачен\nСумма: %s ₽\nОписание: %s", MinorToDecimal(amountMinor), orDash(description))
	n.send(ctx, text)
}

// OfflineOrderPaid announces a paid physical-goods order with the shipping
// particulars the buyer left at checkout
func (n *AdminNotifier) OfflineOrderPaid(ctx context.Context, order *models.Order) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📦 Новый заказ\n\nЗаказ: #%d\nПокупатель: %s\nСумма: %s %s\n",
		order.ID, order.BuyerTgID, MinorToDecimal(order.AmountMinor), order.Currency)
	fmt.Fprintf(&sb, "\nФИО: %s\nТелефон: %s\nАдрес: %s\n", orDash(order.DeliveryFullname), orDash(order.DeliveryPhone), orDash(order.DeliveryAddress))
	if order.DeliveryComment != "" {
		fmt.Fprintf(&sb, "Комментарий: %s\n", order.DeliveryComment)
	}
	n.send(ctx, sb.String())
}

// buyerUsername resolves "@username" for a known buyer, empty otherwise
func (n *AdminNotifier) buyerUsername(buyerTgID string) string {
	tgID, err := strconv.ParseInt(buyerTgID, 10, 64)
	if err != nil {
		return ""
	}
	var user models.User
	if err := n.db.Where("tg_id = ?", tgID).First(&user).Error; err != nil || user.Username == "" {
		return ""
	}
	return "@" + user.Username
}

func (n *AdminNotifier) send(ctx context.Context, text string) {
	if n.adminChatID == 0 {
		logging.Warnf("Admin chat is not configured, dropping notice")
		return
	}
	if err := n.transport.SendMessage(ctx, n.adminChatID, text, ""); err != nil {
		logging.Errorf("Failed to notify admin: error=%v", err)
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
