package store

import (
	"errors"
	"fmt"

	"wholesale/internal/models"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

// GetCart returns the user's cart, creating an empty one on first use.
func (s *Store) GetCart(userID string) (*models.Cart, error) {
	cart, err := s.ensureCart(userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Preload("Items").First(cart, "id = ?", cart.ID).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Store) ensureCart(userID string) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.First(&cart, "user_id = ?", userID).Error
	if err == gorm.ErrRecordNotFound {
		cart = models.Cart{UserID: userID}
		if err := s.db.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCart adds quantity to the user's cart line for a product, after
// validating against the current product row. The check covers the combined
// quantity (already in cart plus requested); a rejection leaves the cart
// untouched, never partially applied.
func (s *Store) AddToCart(userID, productID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, errors.New("quantity must be at least 1")
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !product.IsOnline || !product.IsActive {
		return nil, fmt.Errorf("%s is no longer available", product.Name)
	}
	if product.StockQuantity <= 0 {
		return nil, fmt.Errorf("%s is out of stock", product.Name)
	}

	cart, err := s.ensureCart(userID)
	if err != nil {
		return nil, err
	}

	existing := 0
	var item models.CartItem
	err = s.db.First(&item, "cart_id = ? AND product_id = ?", cart.ID, productID).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if err == nil {
		existing = item.Quantity
	}

	if existing+quantity > product.StockQuantity {
		return nil, fmt.Errorf("only %d units of %s available in stock", product.StockQuantity, product.Name)
	}

	// Price is re-resolved on every mutation, never trusted from the
	// previous snapshot.
	unitPrice := s.ResolvePrice(userID, &product)
	newQty := existing + quantity

	if existing > 0 {
		err = s.db.Model(&item).Updates(map[string]interface{}{
			"quantity":   newQty,
			"unit_price": unitPrice,
			"line_total": unitPrice * float64(newQty),
		}).Error
		if err != nil {
			return nil, err
		}
		item.Quantity = newQty
		item.UnitPrice = unitPrice
		item.LineTotal = unitPrice * float64(newQty)
		return &item, nil
	}

	item = models.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: unitPrice * float64(quantity),
	}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateCartItem sets the line to an absolute quantity; zero removes it.
func (s *Store) UpdateCartItem(userID, itemID string, quantity int) (*models.CartItem, error) {
	if quantity < 0 {
		return nil, errors.New("quantity must not be negative")
	}

	cart, err := s.ensureCart(userID)
	if err != nil {
		return nil, err
	}

	var item models.CartItem
	if err := s.db.First(&item, "id = ? AND cart_id = ?", itemID, cart.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if quantity == 0 {
		return nil, s.db.Delete(&item).Error
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", item.ProductID).Error; err != nil {
		return nil, err
	}
	if !product.IsOnline || !product.IsActive {
		return nil, fmt.Errorf("%s is no longer available", product.Name)
	}
	if product.StockQuantity <= 0 {
		return nil, fmt.Errorf("%s is out of stock", product.Name)
	}
	if quantity > product.StockQuantity {
		return nil, fmt.Errorf("only %d units of %s available in stock", product.StockQuantity, product.Name)
	}

	unitPrice := s.ResolvePrice(userID, &product)
	err = s.db.Model(&item).Updates(map[string]interface{}{
		"quantity":   quantity,
		"unit_price": unitPrice,
		"line_total": unitPrice * float64(quantity),
	}).Error
	if err != nil {
		return nil, err
	}
	item.Quantity = quantity
	item.UnitPrice = unitPrice
	item.LineTotal = unitPrice * float64(quantity)
	return &item, nil
}

func (s *Store) RemoveCartItem(userID, itemID string) error {
	cart, err := s.ensureCart(userID)
	if err != nil {
		return err
	}
	result := s.db.Where("id = ? AND cart_id = ?", itemID, cart.ID).Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
