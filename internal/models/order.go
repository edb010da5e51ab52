package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPendingApproval OrderStatus = "pending_approval"
	OrderApproved        OrderStatus = "approved"
	OrderPushed          OrderStatus = "pushed"
	OrderRejected        OrderStatus = "rejected"
)

// Order is an immutable snapshot of cart contents at checkout. Approved
// orders become eligible for an async push to Zoho via the job queue;
// PushedAt/ZohoSalesOrderID are backfilled when that job completes.
type Order struct {
	ID               string      `json:"id" gorm:"type:uuid;primary_key"`
	UserID           string      `json:"user_id" gorm:"index;not null"`
	Status           OrderStatus `json:"status" gorm:"index;default:pending_approval"`
	Subtotal         float64     `json:"subtotal" gorm:"type:decimal(10,2)"`
	Total            float64     `json:"total" gorm:"type:decimal(10,2)"`
	ShippingName     string      `json:"shipping_name"`
	ShippingAddress  string      `json:"shipping_address"`
	ShippingCity     string      `json:"shipping_city"`
	ShippingZip      string      `json:"shipping_zip"`
	Notes            *string     `json:"notes"`
	ZohoSalesOrderID *string     `json:"zoho_sales_order_id"`
	PushedAt         *time.Time  `json:"pushed_at"`
	Items            []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// OrderItem stores sku/name/price as of order creation, decoupled from later
// product mutations.
type OrderItem struct {
	ID        string  `json:"id" gorm:"type:uuid;primary_key"`
	OrderID   string  `json:"order_id" gorm:"index;not null"`
	ProductID string  `json:"product_id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price" gorm:"type:decimal(10,2)"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total" gorm:"type:decimal(10,2)"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}
