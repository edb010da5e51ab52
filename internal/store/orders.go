package store

import (
	"errors"
	"fmt"
	"strings"

	"wholesale/internal/jobs"
	"wholesale/internal/models"

	"gorm.io/gorm"
)

type ShippingInfo struct {
	Name    string
	Address string
	City    string
	Zip     string
	Notes   string
}

// CreateOrder converts the cart into an immutable order snapshot. Every line
// is re-validated against current stock inside one transaction, all
// violations are collected into a single error, and nothing is written
// unless the whole cart passes. This closes the window in which a sync pass
// or webhook changed stock between add-to-cart and checkout.
func (s *Store) CreateOrder(userID string, shipping ShippingInfo) (*models.Order, error) {
	var order *models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.First(&cart, "user_id = ?", userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New("cart is empty")
			}
			return err
		}

		var items []models.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return errors.New("cart is empty")
		}

		var violations []string
		orderItems := make([]models.OrderItem, 0, len(items))
		subtotal := 0.0

		for _, item := range items {
			var product models.Product
			if err := tx.First(&product, "id = ?", item.ProductID).Error; err != nil {
				violations = append(violations, fmt.Sprintf("product %s is no longer available", item.ProductID))
				continue
			}
			if !product.IsOnline || !product.IsActive {
				violations = append(violations, fmt.Sprintf("%s is no longer available", product.Name))
				continue
			}
			if item.Quantity > product.StockQuantity {
				violations = append(violations, fmt.Sprintf("only %d units of %s available in stock", product.StockQuantity, product.Name))
				continue
			}

			unitPrice := s.ResolvePrice(userID, &product)
			lineTotal := unitPrice * float64(item.Quantity)
			subtotal += lineTotal
			orderItems = append(orderItems, models.OrderItem{
				ProductID: product.ID,
				SKU:       product.SKU,
				Name:      product.Name,
				UnitPrice: unitPrice,
				Quantity:  item.Quantity,
				LineTotal: lineTotal,
			})
		}

		if len(violations) > 0 {
			return fmt.Errorf("cannot create order: %s", strings.Join(violations, "; "))
		}

		newOrder := models.Order{
			UserID:          userID,
			Status:          models.OrderPendingApproval,
			Subtotal:        subtotal,
			Total:           subtotal,
			ShippingName:    shipping.Name,
			ShippingAddress: shipping.Address,
			ShippingCity:    shipping.City,
			ShippingZip:     shipping.Zip,
		}
		if shipping.Notes != "" {
			notes := shipping.Notes
			newOrder.Notes = &notes
		}
		if err := tx.Create(&newOrder).Error; err != nil {
			return err
		}
		for i := range orderItems {
			orderItems[i].OrderID = newOrder.ID
			if err := tx.Create(&orderItems[i]).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		newOrder.Items = orderItems
		order = &newOrder
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Store) GetOrders(userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items").Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (s *Store) GetOrder(id string) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ApproveOrder moves a pending order to approved and queues its push to
// Zoho. The push itself runs in the job worker so approval never blocks on
// remote availability.
func (s *Store) ApproveOrder(orderID string) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPendingApproval {
		return nil, fmt.Errorf("order is %s, only pending orders can be approved", order.Status)
	}

	if err := s.db.Model(order).Update("status", models.OrderApproved).Error; err != nil {
		return nil, err
	}
	order.Status = models.OrderApproved

	if err := jobs.EnqueueOrderPush(s.db, order, s.jobMaxAttempts); err != nil {
		return nil, fmt.Errorf("order approved but push job not queued: %w", err)
	}
	return order, nil
}

func (s *Store) RejectOrder(orderID string) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPendingApproval {
		return nil, fmt.Errorf("order is %s, only pending orders can be rejected", order.Status)
	}
	if err := s.db.Model(order).Update("status", models.OrderRejected).Error; err != nil {
		return nil, err
	}
	order.Status = models.OrderRejected
	return order, nil
}
