package services

import (
	"context"
	"fmt"

	"shopbot-api/internal/models"
	"shopbot-api/pkg/logging"

	"gorm.io/gorm"
)

// DeliveryDispatcher hands purchased goods to the buyer over the transport.
// Each purchase is delivered independently so one broken item never blocks
// the rest of the order.
type DeliveryDispatcher struct {
	db        *gorm.DB
	transport Transport
}

// NewDeliveryDispatcher creates a delivery dispatcher
func NewDeliveryDispatcher(db *gorm.DB, transport Transport) *DeliveryDispatcher {
	return &DeliveryDispatcher{db: db, transport: transport}
}

// DeliverPurchases sends every purchase of a settled order to the buyer.
// Failures are logged per purchase; the money already moved, so delivery is
// best effort and the admin notice carries enough detail to follow up.
func (d *DeliveryDispatcher) DeliverPurchases(ctx context.Context, buyerTgID int64, purchases []models.Purchase) {
	if buyerTgID == 0 {
		logging.Warnf("Cannot deliver purchases without buyer address: count=%d", len(purchases))
		return
	}
	for i := range purchases {
		if err := d.deliverOne(ctx, buyerTgID, &purchases[i]); err != nil {
			logging.Errorf("Failed to deliver purchase: purchase=%d, buyer=%d, error=%v", purchases[i].ID, buyerTgID, err)
		}
	}
}

func (d *DeliveryDispatcher) deliverOne(ctx context.Context, buyerTgID int64, purchase *models.Purchase) error {
	if purchase.ItemID == nil {
		return fmt.Errorf("purchase %d has no item", purchase.ID)
	}
	var item models.Item
	if err := d.db.First(&item, *purchase.ItemID).Error; err != nil {
		return fmt.Errorf("failed to load item %d: %w", *purchase.ItemID, err)
	}

	switch item.ItemType {
	case models.ItemTypeService:
		text := fmt.Sprintf("✅ Оплата получена: <b>%s</b>\n\nДля получения услуги свяжитесь с %s", item.Title, item.ServiceAdminContact)
		return d.transport.SendMessage(ctx, buyerTgID, text, "HTML")

	case models.ItemTypeOffline:
		text := fmt.Sprintf("✅ Заказ оплачен: <b>%s</b>\n\nМы свяжемся с вами для уточнения доставки.", item.Title)
		return d.transport.SendMessage(ctx, buyerTgID, text, "HTML")

	case models.ItemTypeDigital:
		return d.deliverDigital(ctx, buyerTgID, purchase, &item)

	default:
		return fmt.Errorf("unknown item type %q for item %d", item.ItemType, item.ID)
	}
}

// deliverDigital sends the code, file or access grant a digital item carries.
// The code goes in its own message so the buyer can copy it cleanly.
func (d *DeliveryDispatcher) deliverDigital(ctx context.Context, buyerTgID int64, purchase *models.Purchase, item *models.Item) error {
	header := fmt.Sprintf("✅ Оплата получена: <b>%s</b>", item.Title)
	if err := d.transport.SendMessage(ctx, buyerTgID, header, "HTML"); err != nil {
		return err
	}

	switch item.DeliveryType {
	case models.DeliveryTypeCodes:
		if purchase.DeliveryInfo == "" {
			return fmt.Errorf("purchase %d has no allocated code", purchase.ID)
		}
		return d.transport.SendMessage(ctx, buyerTgID, fmt.Sprintf("Ваш код:\n<b>%s</b>", purchase.DeliveryInfo), "HTML")

	case models.DeliveryTypeFile:
		if item.DigitalFilePath == "" {
			return fmt.Errorf("item %d has no file attached", item.ID)
		}
		if err := d.transport.SendDocument(ctx, buyerTgID, item.DigitalFilePath); err != nil {
			notice := "Не удалось отправить файл автоматически, администратор отправит его вручную."
			if sendErr := d.transport.SendMessage(ctx, buyerTgID, notice, ""); sendErr != nil {
				logging.Errorf("Failed to send fallback notice: buyer=%d, error=%v", buyerTgID, sendErr)
			}
			return err
		}
		return nil

	case models.DeliveryTypeGithub:
		if item.GithubRepoReadGrant == "" {
			return fmt.Errorf("item %d has no repository grant", item.ID)
		}
		return d.transport.SendMessage(ctx, buyerTgID, fmt.Sprintf("Доступ к репозиторию: %s", item.GithubRepoReadGrant), "")

	default:
		return fmt.Errorf("unknown delivery type %q for item %d", item.DeliveryType, item.ID)
	}
}
