package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Cart struct {
	ID        string     `json:"id" gorm:"type:uuid;primary_key"`
	UserID    string     `json:"user_id" gorm:"uniqueIndex;not null"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem snapshots unit price and line total at add/update time. The
// snapshot is for display only; price and stock are re-validated against the
// current product row on every mutation and again at order creation.
type CartItem struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key"`
	CartID    string    `json:"cart_id" gorm:"index;not null"`
	ProductID string    `json:"product_id" gorm:"not null"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	UnitPrice float64   `json:"unit_price" gorm:"type:decimal(10,2)"`
	LineTotal float64   `json:"line_total" gorm:"type:decimal(10,2)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}
