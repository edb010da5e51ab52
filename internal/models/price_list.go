package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PriceList mirrors a Zoho pricebook; CustomerPrice rows are its per-item
// overrides. Both are upsert-only, keyed by the remote ids.
type PriceList struct {
	ID              string    `json:"id" gorm:"type:uuid;primary_key"`
	Name            string    `json:"name" gorm:"not null"`
	ZohoPricebookID string    `json:"zoho_pricebook_id" gorm:"uniqueIndex;not null"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CustomerPrice struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key"`
	PriceListID string    `json:"price_list_id" gorm:"index;not null"`
	ZohoItemID  string    `json:"zoho_item_id" gorm:"index;not null"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *PriceList) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func (c *CustomerPrice) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
