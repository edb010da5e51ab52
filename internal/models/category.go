package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category rows are upsert-only; the sync never deletes them.
type Category struct {
	ID             string    `json:"id" gorm:"type:uuid;primary_key"`
	Slug           string    `json:"slug" gorm:"uniqueIndex;not null"`
	Name           string    `json:"name" gorm:"not null"`
	ZohoCategoryID *string   `json:"zoho_category_id" gorm:"uniqueIndex"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
