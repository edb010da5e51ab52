package store

import (
	"wholesale/internal/models"

	"gorm.io/gorm"
)

// ResolvePrice returns the effective unit price for a user: the row from
// their assigned price list when one exists for the item, otherwise the base
// price. Called fresh on every cart mutation and at order creation, so a
// price-list change between add and checkout is honored.
func (s *Store) ResolvePrice(userID string, product *models.Product) float64 {
	if product.ZohoItemID == nil {
		return product.Price
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil || user.PriceListID == nil {
		return product.Price
	}

	var price models.CustomerPrice
	err := s.db.First(&price, "price_list_id = ? AND zoho_item_id = ?", *user.PriceListID, *product.ZohoItemID).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			s.logger.Debug("customer price lookup failed for user %s: %v", userID, err)
		}
		return product.Price
	}
	return price.Price
}
