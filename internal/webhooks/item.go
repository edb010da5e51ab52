package webhooks

import (
	"fmt"

	"wholesale/internal/events"
	"wholesale/internal/models"

	"gorm.io/gorm"
)

// HandleItem applies an item change notification. A delete action delists
// the product, everything else is an upsert by remote item id. A product
// whose image was manually uploaded never has its image touched, whatever
// the payload carries.
func (s *Service) HandleItem(body []byte) Result {
	payload, err := parseItemPayload(body)
	if err != nil {
		return failure("invalid_payload", err.Error())
	}
	item := &payload.Item

	if payload.Action == "delete" {
		return s.delistItem(item.ItemID)
	}

	var product models.Product
	err = s.db.First(&product, "zoho_item_id = ?", item.ItemID).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return failure("lookup_failed", err.Error())
	}

	if err == gorm.ErrRecordNotFound {
		product = models.Product{
			CasePackSize: 1,
			MinOrderQty:  1,
			ImageSource:  models.ImageSourceNone,
		}
		s.transformer.Apply(&product, item)
		if err := s.db.Create(&product).Error; err != nil {
			return failure("create_failed", err.Error())
		}
		s.queue.Enqueue(item.ItemID, item.GroupID)
		s.publisher.Publish(events.EventProductCreated, product.ID, item.ItemID, item.GroupID)
		return success("created", fmt.Sprintf("product %s created", item.ItemID))
	}

	s.transformer.Apply(&product, item)
	if err := s.db.Save(&product).Error; err != nil {
		return failure("update_failed", err.Error())
	}
	if product.ImageSource != models.ImageSourceUploaded {
		s.queue.Enqueue(item.ItemID, item.GroupID)
	}
	s.publisher.Publish(events.EventProductUpdated, product.ID, item.ItemID, item.GroupID)
	return success("updated", fmt.Sprintf("product %s updated", item.ItemID))
}

func (s *Service) delistItem(itemID string) Result {
	var product models.Product
	err := s.db.First(&product, "zoho_item_id = ?", itemID).Error
	if err == gorm.ErrRecordNotFound {
		return success("unknown_item", fmt.Sprintf("item %s not known locally", itemID))
	}
	if err != nil {
		return failure("lookup_failed", err.Error())
	}

	err = s.db.Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"is_online": false,
		"is_active": false,
	}).Error
	if err != nil {
		return failure("delist_failed", err.Error())
	}
	s.publisher.Publish(events.EventProductDelisted, product.ID, itemID, "")
	return success("delisted", fmt.Sprintf("product %s delisted", itemID))
}
